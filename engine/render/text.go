package render

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/WessleyAI/mpg-narrative/engine/narrative"
)

// Text draws frames as a horizontal bar chart on a terminal.
type Text struct {
	mu    sync.Mutex
	w     io.Writer
	width int
}

// NewText writes charts to w with bars up to width columns.
func NewText(w io.Writer, width int) *Text {
	if width <= 0 {
		width = 60
	}
	return &Text{w: w, width: width}
}

func (t *Text) Render(_ context.Context, f narrative.Frame) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n== Scene %d/%d: %s ==\n", f.Scene, f.SceneCount, f.SceneName)
	fmt.Fprintf(&b, "fuels=%v cylinders=%s measure=%s\n", []string(f.Filter.Fuels), f.Filter.Cylinders, f.MeasureLabel)

	pad := 0
	for _, a := range f.Aggregates {
		pad = max(pad, len(a.Make))
	}
	// Highest value on top, like the chart's band axis.
	for i := len(f.Aggregates) - 1; i >= 0; i-- {
		a := f.Aggregates[i]
		v := a.Value(f.Measure)
		if math.IsNaN(v) {
			fmt.Fprintf(&b, "%-*s | -\n", pad, a.Make)
			continue
		}
		fmt.Fprintf(&b, "%-*s | %s %.1f (%.1f cyl)\n", pad, a.Make, strings.Repeat("#", t.barLen(v, f)), v, a.EngineCylinders)
	}

	for _, c := range f.Annotation.Callouts {
		fmt.Fprintf(&b, "\n  * %s\n    %s\n", c.Note.Title, c.Note.Label)
	}
	fmt.Fprintf(&b, "\n[prev:%s next:%s] controls: slider=%s checkboxes=%s dropdown=%s\n",
		onOff(f.Nav.Previous), onOff(f.Nav.Next),
		onOff(f.Controls.Slider), onOff(f.Controls.Checkboxes), onOff(f.Controls.Dropdown))

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *Text) barLen(v float64, f narrative.Frame) int {
	span := f.Scale.Max - f.Scale.Min
	if span <= 0 {
		return 0
	}
	n := int(math.Round((v - f.Scale.Min) / span * float64(t.width)))
	return min(max(n, 0), t.width)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
