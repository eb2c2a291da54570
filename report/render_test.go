package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamlit-analytics/models"
)

func day(s string) time.Time {
	d, err := models.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleCounts() models.CountsSnapshot {
	return models.CountsSnapshot{
		TotalPageviews:  42,
		TotalScriptRuns: 17,
		PerDay: models.DailySeries{
			{Day: day("2024-03-01"), Pageviews: 3, ScriptRuns: 5},
			{Day: day("2024-03-02"), Pageviews: 7, ScriptRuns: 10},
			{Day: day("2024-03-03"), Pageviews: 2, ScriptRuns: 2},
		},
		Widgets: map[string]int64{"button1": 3, "slider2": 0},
	}
}

func strptr(s string) *string { return &s }

func kinds(doc Document) []BlockKind {
	out := make([]BlockKind, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		out = append(out, b.Kind())
	}
	return out
}

func TestRenderWithoutPasswordAlwaysShowsReport(t *testing.T) {
	for _, input := range []string{"", "anything"} {
		doc := Render(sampleCounts(), nil, input)

		assert.Equal(t, GateOpen, doc.Gate)
		assert.True(t, doc.Visible())
		assert.Equal(t, []BlockKind{
			KindTitle, KindParagraph,
			KindHeader, KindParagraph, KindLineChart,
			KindHeader, KindParagraph, KindTable,
		}, kinds(doc))
	}
}

func TestRenderPasswordGate(t *testing.T) {
	password := strptr("s3cret")

	tests := []struct {
		name      string
		input     string
		gate      Gate
		visible   bool
		rejection bool
	}{
		{name: "matching input", input: "s3cret", gate: GateUnlocked, visible: true},
		{name: "wrong input", input: "nope", gate: GateRejected, rejection: true},
		{name: "empty input", input: "", gate: GatePending},
		{name: "prefix is not a match", input: "s3cre", gate: GateRejected, rejection: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Render(sampleCounts(), password, tt.input)

			assert.Equal(t, tt.gate, doc.Gate)
			assert.Equal(t, tt.visible, doc.Visible())

			_, hasPrompt := doc.Find(KindPasswordPrompt)
			assert.True(t, hasPrompt)

			notice, hasNotice := doc.Find(KindNotice)
			assert.Equal(t, tt.rejection, hasNotice)
			if hasNotice {
				assert.Equal(t, RejectionMessage, notice.(Notice).Text)
			}

			_, hasChart := doc.Find(KindLineChart)
			_, hasTable := doc.Find(KindTable)
			assert.Equal(t, tt.visible, hasChart)
			assert.Equal(t, tt.visible, hasTable)
		})
	}
}

func TestTrafficLineContainsTotals(t *testing.T) {
	doc := Render(sampleCounts(), nil, "")

	var found bool
	for _, b := range doc.Blocks {
		if p, ok := b.(Paragraph); ok && p.Text() == "Total: 42 pageviews, 17 script runs" {
			found = true
			assert.Contains(t, p.Caption, "pageview = every time a user goes on the site or reloads")
		}
	}
	assert.True(t, found, "traffic line missing")
}

func TestChartPageviewDomain(t *testing.T) {
	doc := Render(sampleCounts(), nil, "")
	b, ok := doc.Find(KindLineChart)
	require.True(t, ok)
	spec := b.(LineChart).Spec

	pv, ok := spec.Layer("pageviews")
	require.True(t, ok)
	require.NotNil(t, pv.Axis.Domain)
	assert.Equal(t, 0.0, pv.Axis.Domain.Min)
	assert.Equal(t, 8.0, pv.Axis.Domain.Max)
	assert.Equal(t, PageviewColor, pv.Color)
	assert.Equal(t, PageviewColor, pv.Axis.LabelColor)
	assert.Equal(t, ".0f", pv.Axis.Format)
	assert.Equal(t, 1.0, pv.Axis.TickMinStep)
	assert.True(t, pv.Points)

	sr, ok := spec.Layer("script_runs")
	require.True(t, ok)
	assert.Nil(t, sr.Axis.Domain)
	assert.Equal(t, "script runs", sr.Axis.Title)
	assert.Equal(t, ScriptRunColor, sr.Axis.TitleColor)
	assert.Equal(t, 1.0, sr.Axis.TickMinStep)

	assert.Equal(t, "independent", spec.ResolveY)
	assert.Equal(t, "monthdate", spec.X.TimeUnit)
	assert.True(t, spec.Responsive)
}

func TestBuildChartEmptySeries(t *testing.T) {
	spec := BuildChart(nil)
	pv, _ := spec.Layer("pageviews")
	assert.Equal(t, 1.0, pv.Axis.Domain.Max)
	assert.Empty(t, spec.Data)
}

func TestWidgetTableKeepsEveryEntry(t *testing.T) {
	doc := Render(sampleCounts(), nil, "")
	b, ok := doc.Find(KindTable)
	require.True(t, ok)

	assert.Equal(t, []KeyValue{
		{Key: "button1", Value: 3},
		{Key: "slider2", Value: 0},
	}, b.(KeyValueTable).Rows)
}

func TestRenderIsIdempotentAndDoesNotMutate(t *testing.T) {
	counts := sampleCounts()
	before := counts.Clone()

	first := Render(counts, strptr("pw"), "pw")
	second := Render(counts, strptr("pw"), "pw")

	assert.Equal(t, first, second)
	assert.Equal(t, before, counts)

	// The chart owns its copy of the series.
	b, _ := first.Find(KindLineChart)
	b.(LineChart).Spec.Data[0].Pageviews = 99
	assert.Equal(t, int64(3), counts.PerDay[0].Pageviews)
}
