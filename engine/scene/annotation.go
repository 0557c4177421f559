package scene

// CalloutKind selects the callout shape.
type CalloutKind string

const (
	CalloutLabel  CalloutKind = "label"
	CalloutCircle CalloutKind = "circle"
)

// Note is the text block of a callout. Wrap is the line width in pixels.
type Note struct {
	Title string `json:"title"`
	Label string `json:"label"`
	Wrap  int    `json:"wrap"`
}

// Callout is one annotation element positioned in chart coordinates.
// DX/DY offset the note from the subject at X/Y.
type Callout struct {
	Kind         CalloutKind `json:"kind"`
	Note         Note        `json:"note"`
	X            float64     `json:"x"`
	Y            float64     `json:"y"`
	DX           float64     `json:"dx"`
	DY           float64     `json:"dy"`
	Radius       float64     `json:"radius,omitempty"`
	ConnectorEnd string      `json:"connector_end,omitempty"`
	Color        string      `json:"color"`
}

// Annotation is the set of callouts shown with a scene.
type Annotation struct {
	Callouts []Callout `json:"callouts"`
}

// Empty reports whether there is nothing to draw.
func (a Annotation) Empty() bool { return len(a.Callouts) == 0 }

// Clone copies the callout slice. The result is never nil.
func (a Annotation) Clone() Annotation {
	out := make([]Callout, len(a.Callouts))
	copy(out, a.Callouts)
	return Annotation{Callouts: out}
}
