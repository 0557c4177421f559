package narrative

import (
	"github.com/WessleyAI/mpg-narrative/engine/domain"
	"github.com/WessleyAI/mpg-narrative/engine/scene"
)

// Frame is everything a render sink needs to draw one state.
type Frame struct {
	Session        string                   `json:"session"`
	Seq            uint64                   `json:"seq"`
	Scene          int                      `json:"scene"`
	SceneCount     int                      `json:"scene_count"`
	SceneName      string                   `json:"scene_name"`
	Aggregates     []domain.AggregateRecord `json:"aggregates"`
	Measure        domain.Measure           `json:"measure"`
	MeasureLabel   string                   `json:"measure_label"`
	Scale          scene.Scale              `json:"scale"`
	CylinderDomain domain.CylinderRange     `json:"cylinder_domain"`
	Filter         domain.FilterState       `json:"filter"`
	Controls       scene.Controls           `json:"controls"`
	Nav            Nav                      `json:"nav"`
	Annotation     scene.Annotation         `json:"annotation"`
}
