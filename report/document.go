// Package report turns a counts snapshot into an abstract dashboard document and
// draws that document through pluggable adapters (HTML page, JSON, SVG chart).
package report

import (
	"encoding/json"
	"io"
)

type BlockKind string

const (
	KindTitle          BlockKind = "title"
	KindHeader         BlockKind = "header"
	KindParagraph      BlockKind = "paragraph"
	KindPasswordPrompt BlockKind = "password_prompt"
	KindNotice         BlockKind = "notice"
	KindLineChart      BlockKind = "line_chart"
	KindTable          BlockKind = "key_value_table"
)

// Gate is the outcome of the password check for one render.
type Gate string

const (
	// GateOpen means no password is configured.
	GateOpen Gate = "open"
	// GateUnlocked means the input matched the configured password.
	GateUnlocked Gate = "unlocked"
	// GatePending means a password is configured and nothing was entered yet.
	GatePending Gate = "pending"
	// GateRejected means a non-empty input did not match.
	GateRejected Gate = "rejected"
)

// Shows reports whether the report sections are part of the document.
func (g Gate) Shows() bool {
	return g == GateOpen || g == GateUnlocked
}

// Block is one element of a rendered document.
type Block interface {
	Kind() BlockKind
}

type Title struct {
	Text string `json:"text"`
}

type Header struct {
	Text string `json:"text"`
}

// Span is a run of inline text. Href turns it into a link, Code into inline code.
type Span struct {
	Text string `json:"text"`
	Href string `json:"href,omitempty"`
	Code bool   `json:"code,omitempty"`
}

// Paragraph is body text with an optional small caption underneath.
type Paragraph struct {
	Spans   []Span `json:"spans"`
	Caption string `json:"caption,omitempty"`
}

// PasswordPrompt is a masked single-line input.
type PasswordPrompt struct {
	Label string `json:"label"`
	Field string `json:"field"`
}

type Notice struct {
	Text string `json:"text"`
}

type LineChart struct {
	Spec ChartSpec `json:"spec"`
}

type KeyValue struct {
	Key   string `json:"key"`
	Value int64  `json:"value"`
}

// KeyValueTable is a plain structured dump of a map.
type KeyValueTable struct {
	Rows []KeyValue `json:"rows"`
}

func (Title) Kind() BlockKind          { return KindTitle }
func (Header) Kind() BlockKind         { return KindHeader }
func (Paragraph) Kind() BlockKind      { return KindParagraph }
func (PasswordPrompt) Kind() BlockKind { return KindPasswordPrompt }
func (Notice) Kind() BlockKind         { return KindNotice }
func (LineChart) Kind() BlockKind      { return KindLineChart }
func (KeyValueTable) Kind() BlockKind  { return KindTable }

// Text joins the spans of a paragraph without markup.
func (p Paragraph) Text() string {
	var out string
	for _, s := range p.Spans {
		out += s.Text
	}
	return out
}

// Document is the ordered list of blocks produced by Render.
type Document struct {
	Gate   Gate
	Blocks []Block
}

// Visible reports whether the report sections were emitted.
func (d Document) Visible() bool {
	return d.Gate.Shows()
}

// Find returns the first block of the given kind.
func (d Document) Find(kind BlockKind) (Block, bool) {
	for _, b := range d.Blocks {
		if b.Kind() == kind {
			return b, true
		}
	}
	return nil, false
}

// MarshalJSON tags every block with its kind under "type".
func (d Document) MarshalJSON() ([]byte, error) {
	blocks := make([]json.RawMessage, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		fields := map[string]json.RawMessage{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		fields["type"], _ = json.Marshal(b.Kind())
		tagged, err := json.Marshal(fields)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, tagged)
	}
	return json.Marshal(struct {
		Gate   Gate              `json:"gate"`
		Blocks []json.RawMessage `json:"blocks"`
	}{d.Gate, blocks})
}

// WriteJSON is the JSON presentation adapter.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
