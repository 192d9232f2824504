// Package eventdag builds the causal event graph and computes, for every
// node, the predecessor that determines its critical-path trigger time.
package eventdag

import (
	"fmt"

	"github.com/suranap/profstate/internal/alog"
	"github.com/suranap/profstate/internal/ident"
	"github.com/suranap/profstate/internal/ids"
)

// Kind discriminates the event-node taxonomy.
type Kind int

const (
	KindTask Kind = iota
	KindFill
	KindCopy
	KindDepPart
	KindMerge
	KindTrigger
	KindPoison
	KindArriveBarrier
	KindExternalHandshake
	KindReservationAcquire
	KindInstanceReady
	KindInstanceRedistrict
	KindInstanceDeletion
	KindCompletionQueueEvent
	KindExternalEvent
	KindUnknownEvent
)

// requiresDedup reports whether multiple log records may legitimately
// refer to the same node of this kind.
func (k Kind) requiresDedup() bool {
	switch k {
	case KindMerge, KindCompletionQueueEvent, KindArriveBarrier, KindExternalHandshake, KindInstanceRedistrict:
		return true
	default:
		return false
	}
}

// recordsOwnTriggerTime reports whether a record of this kind logs its
// own trigger time directly, versus having it computed during
// critical-path relaxation.
func (k Kind) recordsOwnTriggerTime() bool {
	switch k {
	case KindMerge, KindTrigger, KindPoison, KindArriveBarrier, KindInstanceReady,
		KindInstanceRedistrict, KindExternalHandshake, KindReservationAcquire, KindCompletionQueueEvent:
		return false
	default:
		return true
	}
}

// Node is one event-graph node.
type Node struct {
	Kind         Kind
	Creator      *ident.ProfUID
	CreationTime uint64
	TriggerTime  *uint64
	Critical     *ids.EventID
	unknown      bool
}

// Graph is the event causality DAG.
type Graph struct {
	nodes    map[ids.EventID]*Node
	incoming map[ids.EventID][]ids.EventID
	log      *alog.Logger
}

// New returns an empty Graph. log may be nil to discard warnings.
func New(log *alog.Logger) *Graph {
	return &Graph{
		nodes:    make(map[ids.EventID]*Node),
		incoming: make(map[ids.EventID][]ids.EventID),
		log:      log,
	}
}

func (g *Graph) warnf(format string, args ...interface{}) {
	if g.log != nil {
		g.log.Warn(format, args...)
	}
}

// RecordEventNode declares or updates a node: promotes an UnknownEvent
// placeholder in place; for dedup-eligible kinds
// asserts consistency and updates (keeping the latest arrival time for
// ArriveBarrier/ExternalHandshake); otherwise a repeated declaration is a
// hard invariant violation.
func (g *Graph) RecordEventNode(event ids.EventID, kind Kind, creator *ident.ProfUID, creationTime uint64, triggerTime *uint64, dedup bool) {
	existing, ok := g.nodes[event]
	if !ok {
		g.nodes[event] = &Node{Kind: kind, Creator: creator, CreationTime: creationTime, TriggerTime: triggerTime}
		return
	}
	if existing.unknown {
		existing.Kind = kind
		existing.Creator = creator
		existing.CreationTime = creationTime
		existing.TriggerTime = triggerTime
		existing.unknown = false
		return
	}
	if dedup {
		if existing.Kind != kind {
			panic(fmt.Sprintf("eventdag: event %d redeclared with different kind", event))
		}
		if (kind == KindArriveBarrier || kind == KindExternalHandshake) && triggerTime != nil {
			if existing.TriggerTime == nil || *triggerTime > *existing.TriggerTime {
				existing.TriggerTime = triggerTime
			}
		}
		return
	}
	panic(fmt.Sprintf("eventdag: event %d declared twice without dedup", event))
}

// FindEventNode returns the node for event, creating an UnknownEvent
// placeholder if absent. If event is a barrier generation > 1, a
// mandatory edge from the previous phase is added.
func (g *Graph) FindEventNode(event ids.EventID) *Node {
	n, ok := g.nodes[event]
	if !ok {
		n = &Node{Kind: KindUnknownEvent, unknown: true}
		g.nodes[event] = n
	}
	if event.IsBarrier() {
		if prev, hasPrev := event.PreviousPhase(); hasPrev {
			g.addEdgeIdempotent(prev, event)
		}
	}
	return n
}

// AddEdge adds a causal edge: to cannot trigger before from triggers.
// Dedup-eligible destination kinds use idempotent update-edge semantics;
// this is always safe to call repeatedly since duplicate edges collapse.
func (g *Graph) AddEdge(from, to ids.EventID) {
	g.addEdgeIdempotent(from, to)
}

func (g *Graph) addEdgeIdempotent(from, to ids.EventID) {
	for _, u := range g.incoming[to] {
		if u == from {
			return
		}
	}
	g.incoming[to] = append(g.incoming[to], from)
}

// HasEdges reports whether the graph has any edges at all.
func (g *Graph) HasEdges() bool {
	for _, srcs := range g.incoming {
		if len(srcs) > 0 {
			return true
		}
	}
	return false
}

// ComputeCriticalPaths relaxes every node's trigger time against its
// predecessors in topological order. If the graph has no edges, or a
// cycle is detected, it warns and clears
// every node's Critical pointer so downstream queries degrade gracefully
// rather than failing.
func (g *Graph) ComputeCriticalPaths() {
	if !g.HasEdges() {
		g.warnf("event graph has no edges; skipping critical-path computation")
		g.clearCritical()
		return
	}

	order, ok := g.topoSort()
	if !ok {
		g.warnf("cycle detected in event graph; skipping critical-path computation")
		g.clearCritical()
		return
	}

	for _, id := range order {
		g.relax(id)
	}
}

func (g *Graph) clearCritical() {
	for _, n := range g.nodes {
		n.Critical = nil
	}
}

func (g *Graph) topoSort() ([]ids.EventID, bool) {
	indeg := make(map[ids.EventID]int, len(g.nodes))
	for id := range g.nodes {
		indeg[id] = len(g.incoming[id])
	}
	var queue []ids.EventID
	for id, d := range indeg {
		if d == 0 {
			queue = append(queue, id)
		}
	}
	// outgoing adjacency derived from incoming, built once.
	outgoing := make(map[ids.EventID][]ids.EventID)
	for to, froms := range g.incoming {
		for _, from := range froms {
			outgoing[from] = append(outgoing[from], to)
		}
	}

	var order []ids.EventID
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, next := range outgoing[id] {
			indeg[next]--
			if indeg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if len(order) != len(g.nodes) {
		return nil, false
	}
	return order, true
}

// relax propagates the critical predecessor and (for kinds that don't log
// their own trigger time) the trigger time into node id, from its already-
// processed (topologically earlier) incoming neighbors. Each tracked
// candidate carries the SOURCE'S critical pointer, not the source itself,
// so the pointer chain compresses transitively rather than growing one
// hop per edge.
func (g *Graph) relax(id ids.EventID) {
	n := g.nodes[id]
	preds := g.incoming[id]

	if n.unknown {
		// UnknownEvent nodes have no incoming edges by construction and
		// are their own critical predecessor.
		self := id
		n.Critical = &self
		return
	}

	var latestCritical, earliestCritical *ids.EventID
	var latestTime, earliestTime uint64
	have := false
	var taintCritical *ids.EventID

	for _, src := range preds {
		sn := g.nodes[src]
		if sn.TriggerTime == nil {
			// Source is tainted by an unknown event; this node inherits
			// the taint and the loop stops early, matching the
			// original's break-on-first-taint behavior.
			taintCritical = sn.Critical
			break
		}
		t := *sn.TriggerTime
		if !have {
			latestTime, latestCritical = t, sn.Critical
			earliestTime, earliestCritical = t, sn.Critical
			have = true
			continue
		}
		if t > latestTime {
			latestTime, latestCritical = t, sn.Critical
		}
		if t < earliestTime {
			earliestTime, earliestCritical = t, sn.Critical
		}
	}

	if taintCritical != nil {
		n.Critical = taintCritical
		return
	}

	if !have {
		self := id
		n.Critical = &self
		if !n.Kind.recordsOwnTriggerTime() {
			t := n.CreationTime
			n.TriggerTime = &t
		} else if n.TriggerTime == nil {
			panic(fmt.Sprintf("eventdag: node %d of kind %d must record its own trigger time", id, n.Kind))
		}
		return
	}

	selCritical, selTime := latestCritical, latestTime
	if n.Kind == KindCompletionQueueEvent {
		selCritical, selTime = earliestCritical, earliestTime
	}

	triggerTime := n.CreationTime
	if n.CreationTime < selTime {
		n.Critical = selCritical
		triggerTime = selTime
	} else {
		self := id
		n.Critical = &self
	}

	if !n.Kind.recordsOwnTriggerTime() {
		n.TriggerTime = &triggerTime
	} else if n.TriggerTime == nil {
		panic(fmt.Sprintf("eventdag: node %d of kind %d must record its own trigger time", id, n.Kind))
	}
}

// FindCriticalEntry returns the node pointed to by event's Critical
// pointer, or false if unavailable (no critical-path data, or event
// unknown).
func (g *Graph) FindCriticalEntry(event ids.EventID) (ids.EventID, bool) {
	n, ok := g.nodes[event]
	if !ok || n.Critical == nil {
		return 0, false
	}
	return *n.Critical, true
}

// Node returns the node for event, if present.
func (g *Graph) Node(event ids.EventID) (*Node, bool) {
	n, ok := g.nodes[event]
	return n, ok
}

// HasCriticalPathData reports whether any node carries a critical-path
// pointer (false right after a no-edges or cycle degradation).
func (g *Graph) HasCriticalPathData() bool {
	for _, n := range g.nodes {
		if n.Critical != nil {
			return true
		}
	}
	return false
}
