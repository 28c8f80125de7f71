package view

// ChartKind selects how a chart draws its datasets.
type ChartKind string

const (
	Bar      ChartKind = "bar"
	Line     ChartKind = "line"
	Doughnut ChartKind = "doughnut"
)

// Dataset is one series. Colors holds one color per point, or a single
// color for the whole series.
type Dataset struct {
	Label  string    `json:"label"`
	Data   []float64 `json:"data"`
	Colors []string  `json:"colors,omitempty"`
}

// Chart is an opaque chart handle. Update replaces labels and data in one
// call so no half-updated frame is ever drawn.
type Chart interface {
	Update(labels []string, data []Dataset)
	Destroy()
}

// ChartFactory creates the chart bound to a slot.
type ChartFactory interface {
	NewChart(slot string, kind ChartKind) Chart
}
