package report

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// ChartFunc produces the SVG for a chart block. Handlers plug a cached one in.
type ChartFunc func(spec ChartSpec) ([]byte, error)

// HTMLRenderer is the HTML presentation adapter.
type HTMLRenderer struct {
	Chart ChartFunc
}

// NewHTMLRenderer draws charts directly with ChartRenderer at the given size.
func NewHTMLRenderer(width, height int) *HTMLRenderer {
	return &HTMLRenderer{Chart: SVGChartFunc(width, height)}
}

// SVGChartFunc renders charts without caching.
func SVGChartFunc(width, height int) ChartFunc {
	return func(spec ChartSpec) ([]byte, error) {
		var buf bytes.Buffer
		if err := (ChartRenderer{}).RenderSVG(&buf, spec, width, height); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// Render writes doc as a full HTML page.
func (h *HTMLRenderer) Render(w io.Writer, doc Document) error {
	fragments := make([]template.HTML, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		name := string(b.Kind())
		var data any = b

		if c, ok := b.(LineChart); ok {
			svg, err := h.Chart(c.Spec)
			switch {
			case errors.Is(err, ErrEmptyChart):
				name = "line_chart_empty"
			case err != nil:
				return err
			default:
				// go-chart output, no user supplied text in it.
				data = template.HTML(svg)
			}
		}

		var buf bytes.Buffer
		if err := pageTemplate.ExecuteTemplate(&buf, name, data); err != nil {
			return fmt.Errorf("render %s block: %w", name, err)
		}
		fragments = append(fragments, template.HTML(buf.String()))
	}
	return pageTemplate.ExecuteTemplate(w, "page", fragments)
}
