package models

// ArrivalEvent is one newly observed chat message.
type ArrivalEvent struct {
	// ChannelID scopes MessageID for supergroups and channels. It is 0 for
	// private chats and basic groups, which share one identifier space.
	ChannelID int64
	MessageID int64
	// SenderID is nil for service or channel posts with no user author.
	SenderID *int64
	Text     string
	// Media is the opaque serialized attachment, nil when absent.
	Media    []byte
	Outgoing bool
}

// DeletionBatch is the set of identifiers reported deleted by one notification.
type DeletionBatch struct {
	ChannelID int64
	IDs       []int64
}

// Event is one item on the monitor's inbound queue. Exactly one field is set.
type Event struct {
	Arrival  *ArrivalEvent
	Deletion *DeletionBatch
}
