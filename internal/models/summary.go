package models

// Summary is the optional synopsis of a broadcast (resumes).
type Summary struct {
	ID          int64   `json:"id,omitempty"`
	BroadcastID int64   `json:"broadcast_id"`
	FullTitle   *string `json:"full_title,omitempty"`
	Synopsis    *string `json:"synopsis,omitempty"`
}
