package kafka

import "time"

const (
	EventSubmissionForwarded = "submission.forwarded"
	SubmissionSchemaVersion  = "1"
)

// SubmissionForwarded is published after the workflow endpoint accepts a
// visit request. It carries routing facts only, never the attorney's contact
// details or the free-text message.
type SubmissionForwarded struct {
	SubmissionID   string    `json:"submissionId"`
	IdentifierKind string    `json:"identifierKind"`
	Facility       string    `json:"facility,omitempty"`
	PreferredDate  string    `json:"preferredDate,omitempty"`
	Simulated      bool      `json:"simulated"`
	ForwardedAt    time.Time `json:"forwardedAt"`
}
