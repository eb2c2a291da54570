package report

import "streamlit-analytics/models"

const (
	PageviewColor  = "#5276A7"
	ScriptRunColor = "#57A44C"
)

// AxisSpec describes one y axis of the traffic chart.
type AxisSpec struct {
	Title       string  `json:"title"`
	TitleColor  string  `json:"title_color"`
	TickColor   string  `json:"tick_color"`
	LabelColor  string  `json:"label_color"`
	Format      string  `json:"format"`
	TickMinStep float64 `json:"tick_min_step"`
	// Domain is nil when the scale is derived from the data.
	Domain *Domain `json:"domain,omitempty"`
}

type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// LineLayer is one series drawn as a line with point markers.
type LineLayer struct {
	Field  string   `json:"field"`
	Color  string   `json:"color"`
	Points bool     `json:"points"`
	Axis   AxisSpec `json:"axis"`
}

type XAxisSpec struct {
	Field    string `json:"field"`
	TimeUnit string `json:"time_unit"`
	Title    string `json:"title"`
	Grid     bool   `json:"grid"`
}

type AxisStyle struct {
	TitleFontSize float64 `json:"title_font_size"`
	LabelFontSize float64 `json:"label_font_size"`
	TitlePadding  float64 `json:"title_padding"`
}

// ChartSpec is a renderer-independent description of the traffic chart.
type ChartSpec struct {
	Data       models.DailySeries `json:"data"`
	X          XAxisSpec          `json:"x"`
	Layers     []LineLayer        `json:"layers"`
	ResolveY   string             `json:"resolve_y"`
	Responsive bool               `json:"responsive"`
	AxisStyle  AxisStyle          `json:"axis_style"`
}

// Layer returns the layer plotting field.
func (c ChartSpec) Layer(field string) (LineLayer, bool) {
	for _, l := range c.Layers {
		if l.Field == field {
			return l, true
		}
	}
	return LineLayer{}, false
}

// BuildChart lays out the two-line pageviews / script runs chart. The pageview
// axis is pinned to [0, max+1] so the line never touches the top border; the
// script run axis scales on its own.
func BuildChart(perDay models.DailySeries) ChartSpec {
	pageviews := LineLayer{
		Field:  "pageviews",
		Color:  PageviewColor,
		Points: true,
		Axis: AxisSpec{
			Title:       "pageviews",
			TitleColor:  PageviewColor,
			TickColor:   PageviewColor,
			LabelColor:  PageviewColor,
			Format:      ".0f",
			TickMinStep: 1,
			Domain:      &Domain{Min: 0, Max: float64(perDay.MaxPageviews() + 1)},
		},
	}
	scriptRuns := LineLayer{
		Field:  "script_runs",
		Color:  ScriptRunColor,
		Points: true,
		Axis: AxisSpec{
			Title:       "script runs",
			TitleColor:  ScriptRunColor,
			TickColor:   ScriptRunColor,
			LabelColor:  ScriptRunColor,
			Format:      ".0f",
			TickMinStep: 1,
		},
	}
	return ChartSpec{
		Data:       append(models.DailySeries(nil), perDay...),
		X:          XAxisSpec{Field: "days", TimeUnit: "monthdate", Grid: true},
		Layers:     []LineLayer{pageviews, scriptRuns},
		ResolveY:   "independent",
		Responsive: true,
		AxisStyle:  AxisStyle{TitleFontSize: 15, LabelFontSize: 12, TitlePadding: 10},
	}
}
