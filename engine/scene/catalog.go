package scene

import "github.com/WessleyAI/mpg-narrative/engine/domain"

const annotationColor = "#333"

// ScaleMax is the upper bound of the fixed MPG axis.
const ScaleMax = 150

// Scale is a closed numeric axis domain.
type Scale struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// MPGScale is shared by every scene so bars stay comparable across steps.
func MPGScale() Scale { return Scale{Min: 0, Max: ScaleMax} }

func filterOf(fuels domain.FuelSet, rng domain.CylinderRange) *domain.FilterState {
	return &domain.FilterState{Fuels: fuels, Cylinders: rng}
}

// Default returns the four-scene fuel efficiency tour. Only the last scene
// unlocks the controls.
func Default() Table {
	return Table{
		{
			Index:    1,
			Name:     "Market Leader",
			Filter:   filterOf(domain.NewFuelSet(domain.FuelElectricity), domain.FullCylinderRange()),
			Measure:  domain.MeasureCity,
			Controls: Locked(),
			Annotation: Annotation{Callouts: []Callout{{
				Kind: CalloutLabel,
				Note: Note{
					Title: "Market Leader",
					Label: "Tesla takes the lead in Average City MPG, showcasing its advantage in electric vehicle efficiency.",
					Wrap:  400,
				},
				X: 500, Y: 10, DX: 50, DY: 50,
				Color: annotationColor,
			}}},
		},
		{
			Index:    2,
			Name:     "Highway Efficiency Hero",
			Filter:   filterOf(domain.AllFuels(), domain.FullCylinderRange()),
			Measure:  domain.MeasureHighway,
			Controls: Locked(),
			Annotation: Annotation{Callouts: []Callout{{
				Kind: CalloutLabel,
				Note: Note{
					Title: "Highway Efficiency Hero",
					Label: "Unlike most electric vehicles whose efficiency dips on the highway, Tesla bucks the trend with an increase in MPG, suggesting potential advancements in their battery technology.",
					Wrap:  200,
				},
				X: 550, Y: 10, DX: 50, DY: 50,
				Color: annotationColor,
			}}},
		},
		{
			Index:    3,
			Name:     "Fleet Efficiency Focus",
			Filter:   filterOf(domain.NewFuelSet(domain.FuelElectricity), domain.FullCylinderRange()),
			Measure:  domain.MeasureCombined,
			Controls: Locked(),
			Annotation: Annotation{Callouts: []Callout{{
				Kind: CalloutLabel,
				Note: Note{
					Title: "Fleet Efficiency Focus",
					Label: "While Tesla dominates in terms of individual car efficiency, the title of most fuel-efficient electric fleet goes to Hyundai. This suggests Hyundai might excel in optimizing efficiency across their entire electric vehicle range.",
					Wrap:  300,
				},
				X: 750, Y: 20, DX: -50, DY: 150,
				Color: annotationColor,
			}}},
		},
		{
			Index:    4,
			Name:     "Explore",
			Filter:   filterOf(domain.AllFuels(), domain.CylinderRange{Min: 0, Max: 4}),
			Measure:  domain.MeasureCombined,
			Controls: Unlocked(),
			Annotation: Annotation{Callouts: []Callout{
				{
					Kind: CalloutCircle,
					Note: Note{
						Title: "Shifting Gears: Electric Takes the Lead",
						Label: "Electric vehicles surge in efficiency, leaving traditional cars behind. Fuel efficiency becomes a chasm, separating electric vehicles from the declining performance of gas-powered cars.",
						Wrap:  300,
					},
					X: 250, Y: 75, DX: 150, DY: 100,
					Radius: 75,
					Color:  annotationColor,
				},
				{
					Kind: CalloutLabel,
					Note: Note{
						Title: "Electric Shift Leaves Smart Car Stuck in Gas Lane",
						Label: "Known for its 3-cylinder engines, Smart car got left behind as the industry embraced electric vehicles.",
						Wrap:  300,
					},
					X: 200, Y: 115, DX: 150, DY: 200,
					ConnectorEnd: "arrow",
					Color:        annotationColor,
				},
			}},
		},
	}
}
