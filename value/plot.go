package value

// Plot is a declarative graphics object. User code builds one through the
// plot library namespace; packing rasterizes it through a Renderer into a
// PNG data URI. Kind selects the mark: line and scatter use the X/Y series,
// bar uses Labels/Values.
type Plot struct {
	Kind   string    `json:"kind"`
	Title  string    `json:"title,omitempty"`
	XLabel string    `json:"xlabel,omitempty"`
	YLabel string    `json:"ylabel,omitempty"`
	X      []float64 `json:"x,omitempty"`
	Y      []float64 `json:"y,omitempty"`
	Labels []string  `json:"labels,omitempty"`
	Values []float64 `json:"values,omitempty"`
}

// Plot kinds.
const (
	PlotLine    = "line"
	PlotScatter = "scatter"
	PlotBar     = "bar"
)

// Renderer rasterizes a graphics object to PNG bytes. Rendering is the one
// pluggable collaborator of the codec; everything else encodes standalone.
type Renderer interface {
	Render(p *Plot) ([]byte, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(p *Plot) ([]byte, error)

// Render implements Renderer.
func (f RendererFunc) Render(p *Plot) ([]byte, error) {
	return f(p)
}
