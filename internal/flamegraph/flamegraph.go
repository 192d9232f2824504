// Package flamegraph renders one processor's reconciled caller/waiter
// containment hierarchy (built by package reconcile) as nested SVG
// frames, a lightweight visual smoke-test of that hierarchy rather than a
// full interactive timeline renderer. Unlike a folded-stack-trace flame
// graph, every frame here corresponds to a real wall-clock interval, so
// the chart carries an actual time axis and marks the portions of each
// frame where the entry was blocked on a wait rather than running.
package flamegraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/suranap/profstate/internal/color"
	"github.com/suranap/profstate/internal/proc"
)

const (
	width      = 1200
	fontSize   = 12
	axisHeight = 24
)

var frameHeight = fontSize + 4

// kindColor is the fallback fill per entry kind, used whenever no
// deterministic op color is available (OpColor returns ok=false, e.g.
// for profiling tasks, which carry no OpID of their own).
var kindColor = map[proc.EntryKind]string{
	proc.KindTask:            "#e8745c",
	proc.KindMetaTask:        "#e0a050",
	proc.KindMapperCall:      "#8fb6d6",
	proc.KindRuntimeCall:     "#9fcf8f",
	proc.KindApplicationCall: "#c9a0dc",
	proc.KindGPUKernel:       "#4fa9a2",
	proc.KindProfTask:        "#b0b0b0",
}

// waitFill is the hatched-looking overlay color drawn across a frame's
// wait sub-intervals, dimming the running fill rather than replacing it.
const waitFill = "#00000055"

type frame struct {
	entry  *proc.Entry
	depth  int
	xStart float64
	xWidth float64
}

// OpColor resolves the deterministic color assigned to an operation, the
// same lookup State.GetOpColor exposes; flamegraph takes it as a function
// rather than importing package state.
type OpColor func(opID uint64) (color.RGB, bool)

// GenerateSVG renders every top-level task/meta-task entry in p, and its
// nested calls, as a flame chart against a real time axis. title labels
// the image. opColor may be nil to fall back to per-kind colors only.
func GenerateSVG(p *proc.Proc, title string, opColor OpColor) string {
	var tasks []*proc.Entry
	for _, e := range p.HostEntries {
		if e.Kind == proc.KindTask || e.Kind == proc.KindMetaTask {
			tasks = append(tasks, e)
		}
	}
	if len(tasks) == 0 {
		return ""
	}
	sort.Slice(tasks, func(i, j int) bool {
		return start(tasks[i]) < start(tasks[j])
	})

	lo, hi := start(tasks[0]), stop(tasks[0])
	for _, t := range tasks {
		if s := start(t); s < lo {
			lo = s
		}
		if e := stop(t); e > hi {
			hi = e
		}
	}
	span := float64(hi - lo)
	if span <= 0 {
		span = 1
	}

	var frames []frame
	maxDepth := 0
	for _, t := range tasks {
		collect(p, t, 0, lo, span, &frames, &maxDepth)
	}

	chartHeight := (maxDepth + 2) * frameHeight
	height := chartHeight + axisHeight + 20

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" standalone="no"?>
<svg version="1.1" width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
<style>
  .func { font-family: monospace; font-size: %dpx; }
  .axis { font-family: monospace; font-size: %dpx; fill: #555; }
  rect:hover { stroke: black; stroke-width: 1; }
</style>
<text x="10" y="20" class="func" style="font-size:14px; font-weight:bold">%s</text>
`, width, height, fontSize, fontSize-2, title))

	writeAxis(&sb, lo, hi, chartHeight)

	for _, f := range frames {
		if f.xWidth < 1 {
			continue
		}
		y := float64(chartHeight) - float64(f.depth*frameHeight)
		fill := fillFor(f.entry, f.depth, opColor)
		label := labelFor(f.entry)
		if len(label) > int(f.xWidth/7) {
			maxChars := int(f.xWidth / 7)
			if maxChars > 3 {
				label = label[:maxChars-2] + ".."
			} else {
				label = ""
			}
		}
		sb.WriteString(fmt.Sprintf(
			`<rect x="%.1f" y="%.1f" width="%.1f" height="%d" fill="%s" rx="1"><title>%s</title></rect>`,
			f.xStart, y, f.xWidth, frameHeight-1, fill, tooltipFor(f.entry)))
		sb.WriteString("\n")

		for _, ws := range waitSpans(f.entry, lo, span) {
			sb.WriteString(fmt.Sprintf(
				`<rect x="%.1f" y="%.1f" width="%.1f" height="%d" fill="%s" rx="1"/>`,
				ws.xStart, y, ws.xWidth, frameHeight-1, waitFill))
			sb.WriteString("\n")
		}

		if label != "" {
			sb.WriteString(fmt.Sprintf(
				`<text x="%.1f" y="%.1f" class="func">%s</text>`,
				f.xStart+2, y+float64(frameHeight-3), label))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// writeAxis draws tick marks and timestamp labels at five evenly spaced
// points across [lo, hi], anchored below the deepest frame row.
func writeAxis(sb *strings.Builder, lo, hi uint64, chartHeight int) {
	const ticks = 5
	y := chartHeight + 14
	sb.WriteString(fmt.Sprintf(`<line x1="10" y1="%d" x2="%d" y2="%d" stroke="#ccc"/>`, chartHeight, width-10, chartHeight))
	sb.WriteString("\n")
	span := hi - lo
	for i := 0; i <= ticks; i++ {
		frac := float64(i) / float64(ticks)
		x := 10 + frac*float64(width-20)
		ts := lo + uint64(frac*float64(span))
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="#ccc"/>`, x, chartHeight, x, chartHeight+4))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" class="axis">%s</text>`, x, y, formatNanos(ts)))
		sb.WriteString("\n")
	}
}

// formatNanos renders a nanosecond timestamp in microseconds, the unit
// profiling tools conventionally display durations in.
func formatNanos(ns uint64) string {
	return fmt.Sprintf("%.1fus", float64(ns)/1000)
}

// fillFor resolves an entry's fill color: a deterministic op color when
// one is registered, falling back to the kind palette, and finally to a
// depth-indexed shade so entries of unrecognized kinds still render
// distinctly from their siblings.
func fillFor(e *proc.Entry, depth int, opColor OpColor) string {
	if opColor != nil {
		if rgb, ok := opColor(uint64(e.OpID)); ok {
			return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
		}
	}
	if c, ok := kindColor[e.Kind]; ok {
		return c
	}
	shades := []string{"#999999", "#aaaaaa", "#bbbbbb"}
	return shades[depth%len(shades)]
}

type waitSpan struct {
	xStart float64
	xWidth float64
}

// waitSpans converts an entry's wait intervals into chart-relative
// sub-rectangles overlaying its own frame, so a viewer can see at a
// glance how much of a task's wall-clock span it actually spent blocked.
func waitSpans(e *proc.Entry, lo uint64, span float64) []waitSpan {
	var spans []waitSpan
	for _, w := range e.Waiters {
		xStart := float64(w.Start-lo)/span*float64(width-20) + 10
		xWidth := float64(w.End-w.Start) / span * float64(width-20)
		if xWidth < 1 {
			continue
		}
		spans = append(spans, waitSpan{xStart: xStart, xWidth: xWidth})
	}
	return spans
}

// collect appends e's own frame and recurses into its waiters' callees.
func collect(p *proc.Proc, e *proc.Entry, depth int, lo uint64, span float64, out *[]frame, maxDepth *int) {
	if depth > *maxDepth {
		*maxDepth = depth
	}
	xStart := float64(start(e)-lo) / span * float64(width-20)
	xWidth := float64(stop(e)-start(e)) / span * float64(width-20)
	*out = append(*out, frame{entry: e, depth: depth, xStart: xStart + 10, xWidth: xWidth})

	for _, w := range e.Waiters {
		if w.Callee == nil {
			continue
		}
		callee, ok := p.HostEntries[*w.Callee]
		if !ok {
			continue
		}
		collect(p, callee, depth+1, lo, span, out, maxDepth)
	}
}

func labelFor(e *proc.Entry) string {
	if e.Name != "" {
		return e.Name
	}
	switch e.Kind {
	case proc.KindTask:
		return fmt.Sprintf("task:%d", e.TaskID)
	case proc.KindMetaTask:
		return fmt.Sprintf("meta:%d", e.VariantID)
	case proc.KindMapperCall:
		return fmt.Sprintf("mapper_call:%d", e.CallKind)
	case proc.KindRuntimeCall:
		return fmt.Sprintf("runtime_call:%d", e.CallKind)
	case proc.KindApplicationCall:
		return "application_call"
	default:
		return fmt.Sprintf("entry:%d", e.ProfUID)
	}
}

// tooltipFor builds the SVG <title> body shown on hover: the entry's
// label plus its wall-clock span and wait count, so a reader can inspect
// an entry without cross-referencing the raw profile.
func tooltipFor(e *proc.Entry) string {
	return fmt.Sprintf("%s [%d-%d] waits=%d", labelFor(e), start(e), stop(e), len(e.Waiters))
}

func start(e *proc.Entry) uint64 {
	if e.Range.Start != nil {
		return *e.Range.Start
	}
	return 0
}

func stop(e *proc.Entry) uint64 {
	if e.Range.Stop != nil {
		return *e.Range.Stop
	}
	return start(e)
}
