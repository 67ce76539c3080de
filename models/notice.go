package models

// EntityKind selects how a span of notice text is rendered.
type EntityKind string

const (
	// EntityBold renders the span in bold.
	EntityBold EntityKind = "bold"
	// EntityTextURL renders the span as a link to URL.
	EntityTextURL EntityKind = "text_url"
)

// Entity is a formatting span over Notice.Text. Offset and Length count
// UTF-16 code units.
type Entity struct {
	Kind   EntityKind
	Offset int
	Length int
	URL    string
}

// Notice is a reconstructed message ready to be sent to the saved messages chat.
type Notice struct {
	Text     string
	Entities []Entity
	Media    []byte
}

// SendRequest pairs a notice with the deleted message it reconstructs.
type SendRequest struct {
	MessageID int64
	Sender    Sender
	Notice    Notice
}
