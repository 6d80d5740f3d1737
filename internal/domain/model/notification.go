package model

// NotificationKind distinguishes a routine toast from a warning banner.
type NotificationKind string

const (
	NotificationInfo    NotificationKind = "info"
	NotificationWarning NotificationKind = "warning"
)

// Notification is what the presence policy hands to the notifier adapter when
// an incoming message is not immediately read.
type Notification struct {
	RecipientID    string
	ConversationID string
	MessageID      string
	Kind           NotificationKind
	Text           string
	Sound          bool
}
