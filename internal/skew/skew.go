// Package skew detects inter-node timing skew and long-latency messages
// using an online mean/variance estimator (Welford's algorithm).
package skew

import (
	"fmt"
	"math"

	"github.com/suranap/profstate/internal/alog"
)

// NodePair identifies a (creator_node, executor_node) pair that a
// message-task or message meta-task ran between.
type NodePair struct {
	CreatorNode  uint16
	ExecutorNode uint16
}

// stats accumulates Welford's online mean/variance for one node pair.
type stats struct {
	count int64
	mean  float64
	m2    float64
}

func (s *stats) update(x float64) {
	s.count++
	delta := x - s.mean
	s.mean += delta / float64(s.count)
	delta2 := x - s.mean
	s.m2 += delta * delta2
}

func (s *stats) variance() float64 {
	if s.count < 2 {
		return 0
	}
	return s.m2 / float64(s.count-1)
}

// Message is one message-task or message meta-task observation: its
// spawn (sender-side clock) and create (receiver-side clock) times, and
// the node pair it ran between.
type Message struct {
	Pair   NodePair
	Spawn  uint64
	Create uint64
}

// Audit buffers every observed message and only computes skew/latency
// statistics once Report runs, in two explicit passes: pass one
// accumulates the mean/variance of skew per node pair over every
// buffered message; pass two then recomputes each message's latency
// against the fully converged per-pair mean. Folding both passes into a
// single running pass would judge early messages against an
// under-converged mean, which this audit avoids by deferring all
// computation to Report. Skew and long-latency findings are recoverable
// anomalies: Audit never aborts the pipeline, only advises.
type Audit struct {
	messages    []Message
	thresholdNS float64
	warnPercent float64
	log         *alog.Logger
}

// NewAudit returns an Audit with the given long-latency threshold
// (nanoseconds) and the share (0-1) of long-latency messages that
// triggers a warning.
func NewAudit(thresholdNS float64, warnPercent float64, log *alog.Logger) *Audit {
	return &Audit{
		thresholdNS: thresholdNS,
		warnPercent: warnPercent,
		log:         log,
	}
}

// Observe buffers one message observation. Statistics are not updated
// until Report runs the two passes over every buffered message.
func (a *Audit) Observe(m Message) {
	a.messages = append(a.messages, m)
}

// skewByPair runs pass one: Welford skew accumulation per node pair.
// Skew is only defined (and only accumulated) when spawn > create;
// otherwise a message contributes no skew sample for its pair.
func (a *Audit) skewByPair() map[NodePair]*stats {
	byPair := make(map[NodePair]*stats)
	for _, m := range a.messages {
		if m.Spawn <= m.Create {
			continue
		}
		s, ok := byPair[m.Pair]
		if !ok {
			s = &stats{}
			byPair[m.Pair] = s
		}
		s.update(float64(m.Spawn - m.Create))
	}
	return byPair
}

// MeanSkew returns the fully converged mean skew for pair, or 0 if
// unobserved.
func (a *Audit) MeanSkew(pair NodePair) float64 {
	if s, ok := a.skewByPair()[pair]; ok {
		return s.mean
	}
	return 0
}

// Variance returns the fully converged skew variance for pair.
func (a *Audit) Variance(pair NodePair) float64 {
	if s, ok := a.skewByPair()[pair]; ok {
		return s.variance()
	}
	return 0
}

// Report runs both passes over every buffered message and returns
// human-readable advisories: bidirectional skew between node pairs, and
// a single global long-latency share across the whole profile (not one
// share per pair, so long-latency messages between a few busy pairs are
// measured against every message, quiet pairs included).
func (a *Audit) Report() []string {
	byPair := a.skewByPair()

	var msgs []string
	for pair := range byPair {
		reverse := NodePair{CreatorNode: pair.ExecutorNode, ExecutorNode: pair.CreatorNode}
		if _, ok := byPair[reverse]; !ok {
			continue
		}
		if pair.CreatorNode >= pair.ExecutorNode {
			continue // report each unordered pair once
		}
		fwd, back := byPair[pair].mean, byPair[reverse].mean
		if fwd > 0 && back > 0 {
			msg := fmt.Sprintf("bidirectional skew detected between node %d and node %d (%.1fns / %.1fns)",
				pair.CreatorNode, pair.ExecutorNode, fwd, back)
			msgs = append(msgs, msg)
			if a.log != nil {
				a.log.Warn("%s", msg)
			}
		}
	}

	var totalMessages, badMessages int64
	var longestLatency float64
	for _, m := range a.messages {
		totalMessages++
		mean := 0.0
		if s, ok := byPair[m.Pair]; ok {
			mean = s.mean
		}
		// latency = create - (spawn + the pair's converged mean skew),
		// counted only when it is non-negative.
		create := float64(m.Create)
		spawn := float64(m.Spawn) + mean
		if spawn > create {
			continue // negative after adjustment, excluded from latency
		}
		latency := create - spawn
		if latency > longestLatency {
			longestLatency = latency
		}
		if latency > a.thresholdNS {
			badMessages++
		}
	}
	if totalMessages > 0 {
		share := float64(badMessages) / float64(totalMessages)
		if share > a.warnPercent {
			msg := fmt.Sprintf("%.1f%% of %d messages exceed the long-latency threshold (longest %.1fns)",
				share*100, totalMessages, longestLatency)
			msgs = append(msgs, msg)
			if a.log != nil {
				a.log.Warn("%s", msg)
			}
		}
	}
	return msgs
}

// StdDev is a convenience for reporting: sqrt of the accumulated variance.
func StdDev(variance float64) float64 {
	return math.Sqrt(variance)
}
