package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"

	"github.com/WessleyAI/mpg-narrative/engine/domain"
	"github.com/WessleyAI/mpg-narrative/engine/narrative"
	"github.com/WessleyAI/mpg-narrative/engine/scene"
)

// Chart geometry, in pixels.
const (
	marginTop    = 10
	marginRight  = 150
	marginBottom = 40
	marginLeft   = 100
	outerWidth   = 1400
	outerHeight  = 650
	plotWidth    = outerWidth - marginLeft - marginRight
	plotHeight   = outerHeight - marginTop - marginBottom
	legendSwatch = 30
	charWidth    = 7
)

// Cylinder colour ramp endpoints.
const (
	colorLow  = "#66b3ff"
	colorHigh = "#003366"
)

type barView struct {
	Make   string
	Y      float64
	Height float64
	Width  float64
	Fill   string
	Value  string
}

type tickView struct {
	X     float64
	Label string
}

type legendView struct {
	Cylinders int
	Y         float64
	TextY     float64
	Fill      string
}

type calloutView struct {
	X, Y, NX, NY float64
	Radius       float64
	Arrow        bool
	Color        string
	Title        string
	Lines        []string
}

type pageView struct {
	Frame      narrative.Frame
	Width      int
	Height     int
	PlotW      int
	PlotH      int
	Bars       []barView
	Ticks      []tickView
	Legend     []legendView
	Callouts   []calloutView
	Fuels      []fuelView
	Measures   []measureView
	Controls   scene.Controls
	MaxCyl     int
	MarginL    int
	MarginT    int
	LegendX    int
	TickY      int
	AxisLabelY int
}

type fuelView struct {
	Name     string
	Included bool
}

type measureView struct {
	Key      string
	Label    string
	Selected bool
}

// SVG serves the latest frame as an HTML page with an inline SVG chart.
type SVG struct {
	mu    sync.RWMutex
	frame narrative.Frame
	ok    bool
}

// NewSVG returns an empty SVG sink.
func NewSVG() *SVG { return &SVG{} }

func (s *SVG) Render(_ context.Context, f narrative.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame, s.ok = f, true
	return nil
}

// ServeHTTP writes the page for the latest frame.
func (s *SVG) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	f, ok := s.frame, s.ok
	s.mu.RUnlock()
	if !ok {
		http.Error(w, "no frame rendered yet", http.StatusServiceUnavailable)
		return
	}
	var buf bytes.Buffer
	if err := WriteHTML(&buf, f); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// WriteHTML renders f as a standalone page.
func WriteHTML(w io.Writer, f narrative.Frame) error {
	return pageTmpl.Execute(w, layout(f))
}

func layout(f narrative.Frame) pageView {
	v := pageView{
		Frame:      f,
		Width:      outerWidth,
		Height:     outerHeight,
		PlotW:      plotWidth,
		PlotH:      plotHeight,
		Controls:   f.Controls,
		MaxCyl:     domain.MaxCylinders,
		MarginL:    marginLeft,
		MarginT:    marginTop,
		LegendX:    marginLeft + plotWidth - marginRight/2,
		TickY:      plotHeight + 15,
		AxisLabelY: plotHeight + marginTop + 20,
	}

	x := func(val float64) float64 {
		span := f.Scale.Max - f.Scale.Min
		if span <= 0 || math.IsNaN(val) {
			return 0
		}
		return math.Max(0, (val-f.Scale.Min)/span*plotWidth)
	}

	// Band axis: the first (lowest) aggregate sits at the bottom.
	n := len(f.Aggregates)
	if n > 0 {
		band := float64(plotHeight) / float64(n)
		for i, a := range f.Aggregates {
			val := a.Value(f.Measure)
			label := "n/a"
			if !math.IsNaN(val) {
				label = fmt.Sprintf("%.1f", val)
			}
			v.Bars = append(v.Bars, barView{
				Make:   a.Make,
				Y:      float64(plotHeight) - float64(i+1)*band,
				Height: band,
				Width:  x(val),
				Fill:   cylinderColor(a.EngineCylinders, f.CylinderDomain),
				Value:  label,
			})
		}
	}

	for t := f.Scale.Min; t <= f.Scale.Max; t += 10 {
		v.Ticks = append(v.Ticks, tickView{X: x(t), Label: fmt.Sprintf("%g", t)})
	}

	for c := f.CylinderDomain.Min; c <= f.CylinderDomain.Max; c++ {
		v.Legend = append(v.Legend, legendView{
			Cylinders: c,
			Y:         float64(c-f.CylinderDomain.Min+1) * 20,
			TextY:     (float64(c-f.CylinderDomain.Min) + 1.7) * 20,
			Fill:      cylinderColor(float64(c), f.CylinderDomain),
		})
	}

	for _, c := range f.Annotation.Callouts {
		v.Callouts = append(v.Callouts, calloutView{
			X: c.X, Y: c.Y, NX: c.X + c.DX, NY: c.Y + c.DY,
			Radius: c.Radius,
			Arrow:  c.ConnectorEnd == "arrow",
			Color:  c.Color,
			Title:  c.Note.Title,
			Lines:  wrap(c.Note.Label, c.Note.Wrap/charWidth),
		})
	}

	for _, fuel := range domain.KnownFuels {
		v.Fuels = append(v.Fuels, fuelView{Name: fuel, Included: f.Filter.Fuels.Contains(fuel)})
	}
	for _, m := range domain.Measures {
		v.Measures = append(v.Measures, measureView{Key: string(m), Label: m.Label(), Selected: m == f.Measure})
	}
	return v
}

// cylinderColor interpolates the ramp linearly over dom. NaN gets no fill.
func cylinderColor(cyl float64, dom domain.CylinderRange) string {
	if math.IsNaN(cyl) {
		return "none"
	}
	span := float64(dom.Max - dom.Min)
	t := 0.0
	if span > 0 {
		t = math.Min(1, math.Max(0, (cyl-float64(dom.Min))/span))
	}
	lo, hi := hexRGB(colorLow), hexRGB(colorHigh)
	var out [3]int
	for i := range out {
		out[i] = int(math.Round(float64(lo[i]) + t*float64(hi[i]-lo[i])))
	}
	return fmt.Sprintf("#%02x%02x%02x", out[0], out[1], out[2])
}

func hexRGB(s string) [3]int {
	var r, g, b int
	fmt.Sscanf(strings.TrimPrefix(s, "#"), "%02x%02x%02x", &r, &g, &b)
	return [3]int{r, g, b}
}

// wrap greedily breaks text into lines of at most width runes.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if width <= 0 || len(words) == 0 {
		return words
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Frame.SceneName}} - Scene {{.Frame.Scene}} of {{.Frame.SceneCount}}</title>
<style>
body { font-family: sans-serif; color: #333; }
.annotation-note-title { font-weight: bold; }
.controls { margin: 8px 0; }
</style>
</head>
<body>
<h2>Scene {{.Frame.Scene}} of {{.Frame.SceneCount}}: {{.Frame.SceneName}}</h2>
<div class="controls">
  <button data-path="/api/scene/previous"{{if not .Frame.Nav.Previous}} disabled{{end}}>Previous</button>
  <button data-path="/api/scene/next"{{if not .Frame.Nav.Next}} disabled{{end}}>Next</button>
  <label>Max cylinders
    <input id="slider" type="range" min="0" max="{{.MaxCyl}}" value="{{.Frame.Filter.Cylinders.Max}}"{{if not .Controls.Slider}} disabled{{end}}>
  </label>
  {{range .Fuels}}<label><input class="fuel" type="checkbox" value="{{.Name}}"{{if not .Included}} checked{{end}}{{if not $.Controls.Checkboxes}} disabled{{end}}> exclude {{.Name}}</label>
  {{end}}
  <select id="measure"{{if not .Controls.Dropdown}} disabled{{end}}>
  {{range .Measures}}<option value="{{.Key}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
  {{end}}</select>
</div>
<svg width="{{.Width}}" height="{{.Height}}">
<defs><marker id="arrow" viewBox="0 0 10 10" refX="5" refY="5" markerWidth="6" markerHeight="6" orient="auto-start-reverse"><path d="M 0 0 L 10 5 L 0 10 z" fill="#333"/></marker></defs>
<g transform="translate({{.MarginL}},{{.MarginT}})">
  {{range .Ticks}}<line x1="{{.X}}" x2="{{.X}}" y1="0" y2="{{$.PlotH}}" stroke="#ddd"/><text x="{{.X}}" y="{{$.TickY}}" text-anchor="middle" font-size="10">{{.Label}}</text>
  {{end}}
  {{range .Bars}}<rect class="bar" x="0" y="{{.Y}}" width="{{.Width}}" height="{{.Height}}" fill="{{.Fill}}"><title>{{.Make}}: {{.Value}}</title></rect><text x="-6" y="{{.Y}}" dy="1em" text-anchor="end" font-size="10">{{.Make}}</text>
  {{end}}
  <text text-anchor="end" x="{{.PlotW}}" y="{{.AxisLabelY}}">{{.Frame.MeasureLabel}}</text>
  <text text-anchor="end" transform="rotate(-90)" y="-80" x="0">Make</text>
  <g class="legendLinear" transform="translate({{.LegendX}},{{.MarginT}})">
    {{range .Legend}}<rect x="0" y="{{.Y}}" width="30" height="15" fill="{{.Fill}}"/><text x="40" y="{{.TextY}}">{{.Cylinders}}</text>
    {{end}}<text>Engine Cylinders</text>
  </g>
  <g class="annotation">
  {{range .Callouts}}{{$c := .}}<g>
    {{if .Radius}}<circle cx="{{.X}}" cy="{{.Y}}" r="{{.Radius}}" fill="none" stroke="{{.Color}}"/>{{end}}
    <line x1="{{.X}}" y1="{{.Y}}" x2="{{.NX}}" y2="{{.NY}}" stroke="{{.Color}}"{{if .Arrow}} marker-start="url(#arrow)"{{end}}/>
    <text x="{{.NX}}" y="{{.NY}}" fill="{{.Color}}"><tspan class="annotation-note-title" x="{{.NX}}" dy="1.2em">{{.Title}}</tspan>{{range .Lines}}<tspan x="{{$c.NX}}" dy="1.2em">{{.}}</tspan>{{end}}</text>
  </g>
  {{end}}</g>
</g>
</svg>
<script>
function send(path, body) {
  fetch(path, {method: "POST", headers: {"Content-Type": "application/json"}, body: JSON.stringify(body || {})})
    .then(function() { location.reload(); });
}
document.querySelectorAll("button[data-path]").forEach(function(b) {
  b.addEventListener("click", function() { send(b.dataset.path); });
});
document.getElementById("slider").addEventListener("change", function(e) {
  send("/api/controls/cylinders", {ceiling: parseInt(e.target.value, 10)});
});
document.querySelectorAll("input.fuel").forEach(function(c) {
  c.addEventListener("change", function() { send("/api/controls/fuel", {fuel: c.value, included: !c.checked}); });
});
document.getElementById("measure").addEventListener("change", function(e) {
  send("/api/controls/measure", {measure: e.target.value});
});
</script>
</body>
</html>
`))
