// internal/workers/communication/send-match-digest/models.go
package sendmatchdigest

import "matchmaking-workers/internal/matching"

type Input struct {
	RecipientID string `json:"recipientId"`
	// UserID is used when recipientId is not set, so the digest can follow a
	// search for the same member.
	UserID string                     `json:"userId"`
	Items  []matching.ScoredCandidate `json:"items"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "failed", "disabled"
	SentAt         string   `json:"sentAt"` // ISO 8601
	MatchCount     int      `json:"matchCount"`
	Channels       []string `json:"channels"`
}

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)
