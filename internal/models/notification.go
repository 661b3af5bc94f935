// internal/models/notification.go
package models

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Contact is where match digests for a member are delivered.
type Contact struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	OptedIn   bool   `json:"optedIn"`
}

type MatchDigest struct {
	ID          string   `json:"id"`
	RecipientID string   `json:"recipientId"`
	Channels    []string `json:"channels"`
	Status      string   `json:"status"` // "sent", "failed", "disabled"
	MatchCount  int      `json:"matchCount"`
	SentAt      string   `json:"sentAt"`
}
