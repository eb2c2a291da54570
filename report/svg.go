package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrEmptyChart = errors.New("chart has no data points")

const (
	DefaultChartWidth  = 960
	DefaultChartHeight = 360

	maxYTicks = 5
	maxXTicks = 14
)

// ChartRenderer draws a ChartSpec as SVG with go-chart.
type ChartRenderer struct{}

// RenderSVG writes the chart. The first layer goes on the primary (left) y
// axis and the second on the secondary one, each with its own range.
func (ChartRenderer) RenderSVG(w io.Writer, spec ChartSpec, width, height int) error {
	if len(spec.Data) == 0 {
		return ErrEmptyChart
	}
	if len(spec.Layers) == 0 || len(spec.Layers) > 2 {
		return fmt.Errorf("chart needs one or two layers, got %d", len(spec.Layers))
	}
	if width <= 0 {
		width = DefaultChartWidth
	}
	if height <= 0 {
		height = DefaultChartHeight
	}

	days := make([]time.Time, len(spec.Data))
	for i, d := range spec.Data {
		days[i] = d.Day
	}

	ch := chart.Chart{
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      xAxis(spec, days),
	}
	for i, layer := range spec.Layers {
		values, err := fieldValues(spec, layer.Field)
		if err != nil {
			return err
		}
		axisType := chart.YAxisPrimary
		if i == 1 {
			axisType = chart.YAxisSecondary
		}
		color := hexColor(layer.Color)
		style := chart.Style{StrokeColor: color, StrokeWidth: 2}
		if layer.Points {
			style.DotColor = color
			style.DotWidth = 4
		}
		ch.Series = append(ch.Series, chart.TimeSeries{
			Name:    layer.Axis.Title,
			YAxis:   axisType,
			XValues: days,
			YValues: values,
			Style:   style,
		})

		axis := yAxis(spec.AxisStyle, layer.Axis, values)
		if i == 0 {
			ch.YAxis = axis
		} else {
			ch.YAxisSecondary = axis
		}
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.SVG, &buf); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	out := buf.Bytes()
	if spec.Responsive {
		out = responsive(out, width, height)
	}
	_, err := w.Write(out)
	return err
}

func xAxis(spec ChartSpec, days []time.Time) chart.XAxis {
	first, last := days[0], days[len(days)-1]
	stride := 1
	if len(days) > maxXTicks {
		stride = (len(days) + maxXTicks - 1) / maxXTicks
	}
	var ticks []chart.Tick
	for i := 0; i < len(days); i += stride {
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(days[i]), Label: days[i].Format("Jan 02")})
	}
	axis := chart.XAxis{
		Name: spec.X.Title,
		// Half a day of padding on both sides keeps single-day charts drawable.
		Range: &chart.ContinuousRange{
			Min: chart.TimeToFloat64(first.Add(-12 * time.Hour)),
			Max: chart.TimeToFloat64(last.Add(12 * time.Hour)),
		},
		Ticks: ticks,
		Style: chart.Style{FontSize: spec.AxisStyle.LabelFontSize},
	}
	if spec.X.Grid {
		axis.GridMajorStyle = chart.Style{StrokeColor: drawing.ColorFromHex("DDDDDD"), StrokeWidth: 1}
	}
	return axis
}

func yAxis(style AxisStyle, spec AxisSpec, values []float64) chart.YAxis {
	domain := Domain{Min: 0}
	if spec.Domain != nil {
		domain = *spec.Domain
	} else {
		var max float64
		for _, v := range values {
			if v > max {
				max = v
			}
		}
		domain.Max = NiceCeil(max, maxYTicks)
	}
	if domain.Max <= domain.Min {
		domain.Max = domain.Min + 1
	}

	var ticks []chart.Tick
	for _, v := range IntegerTicks(domain.Min, domain.Max, maxYTicks) {
		ticks = append(ticks, chart.Tick{Value: v, Label: FormatTick(v)})
	}
	return chart.YAxis{
		Name: spec.Title,
		NameStyle: chart.Style{
			FontColor: hexColor(spec.TitleColor),
			FontSize:  style.TitleFontSize,
			Padding:   chart.Box{Left: int(style.TitlePadding), Right: int(style.TitlePadding)},
		},
		Style: chart.Style{
			FontColor:   hexColor(spec.LabelColor),
			StrokeColor: hexColor(spec.TickColor),
			FontSize:    style.LabelFontSize,
		},
		Range: &chart.ContinuousRange{Min: domain.Min, Max: domain.Max},
		Ticks: ticks,
	}
}

func fieldValues(spec ChartSpec, field string) ([]float64, error) {
	values := make([]float64, len(spec.Data))
	for i, d := range spec.Data {
		switch field {
		case "pageviews":
			values[i] = float64(d.Pageviews)
		case "script_runs":
			values[i] = float64(d.ScriptRuns)
		default:
			return nil, fmt.Errorf("unknown chart field %q", field)
		}
	}
	return values, nil
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// responsive adds a viewBox so the SVG scales to the width of its container.
func responsive(svg []byte, width, height int) []byte {
	viewBox := fmt.Sprintf(`<svg viewBox="0 0 %d %d" preserveAspectRatio="xMidYMid meet" `, width, height)
	return bytes.Replace(svg, []byte("<svg "), []byte(viewBox), 1)
}
