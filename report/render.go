package report

import (
	"fmt"
	"sort"

	"streamlit-analytics/models"
)

const (
	PasswordField    = "password"
	RejectionMessage = "Nope, that's not correct ☝️"
	ProjectURL       = "https://github.com/jrieke/streamlit-analytics"
)

// Render builds the dashboard document. password is nil when no gate is
// configured; input is the current value of the password field.
//
// The comparison is a plain string equality on purpose: the gate only keeps
// casual visitors out and is not an authentication mechanism.
func Render(counts models.CountsSnapshot, password *string, input string) Document {
	doc := Document{Gate: GateOpen}
	doc.Blocks = append(doc.Blocks,
		Title{Text: "Analytics"},
		Paragraph{Spans: []Span{
			{Text: "Psst! 👀 You found a secret section generated by "},
			{Text: "streamlit-analytics", Href: ProjectURL},
			{Text: ". If you didn't mean to go here, remove "},
			{Text: "?analytics=on", Code: true},
			{Text: " from the URL."},
		}},
	)

	if password != nil {
		doc.Blocks = append(doc.Blocks, PasswordPrompt{
			Label: "Enter password to show results",
			Field: PasswordField,
		})
		switch {
		case input == *password:
			doc.Gate = GateUnlocked
		case input == "":
			doc.Gate = GatePending
		default:
			doc.Gate = GateRejected
			doc.Blocks = append(doc.Blocks, Notice{Text: RejectionMessage})
		}
	}

	if !doc.Gate.Shows() {
		return doc
	}

	doc.Blocks = append(doc.Blocks,
		Header{Text: "Traffic"},
		Paragraph{
			Spans: []Span{{Text: TrafficLine(counts)}},
			Caption: "pageview = every time a user goes on the site or reloads; " +
				"script run = every time a widget changes and the app re-runs the script",
		},
		LineChart{Spec: BuildChart(counts.PerDay)},
		Header{Text: "Widget interactions"},
		Paragraph{
			Spans: []Span{{Text: "Numbers represent user interactions, e.g. how often a button was " +
				"clicked, how often a specific text input was given, ..."}},
			Caption: "Note: Numbers only increase if the state of the widget changes, " +
				"not every time the app runs the script.",
		},
		WidgetTable(counts.Widgets),
	)
	return doc
}

// TrafficLine formats the totals sentence of the traffic section.
func TrafficLine(counts models.CountsSnapshot) string {
	return fmt.Sprintf("Total: %d pageviews, %d script runs", counts.TotalPageviews, counts.TotalScriptRuns)
}

// WidgetTable dumps the widget counters, keys sorted so output is stable.
func WidgetTable(widgets map[string]int64) KeyValueTable {
	keys := make([]string, 0, len(widgets))
	for k := range widgets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]KeyValue, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, KeyValue{Key: k, Value: widgets[k]})
	}
	return KeyValueTable{Rows: rows}
}
