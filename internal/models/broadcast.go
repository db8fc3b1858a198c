package models

import "time"

// Broadcast is one scheduled airing (programmation). Rows are never deduplicated:
// a date is deleted before it is fetched again.
type Broadcast struct {
	ID         int64     `json:"id,omitempty"`
	ChannelID  int64     `json:"channel_id"`
	Date       time.Time `json:"date"`
	StartTime  *string   `json:"start_time,omitempty"` // "15:04"
	Title      *string   `json:"title,omitempty"`
	Episode    *string   `json:"episode,omitempty"`
	Genre      *string   `json:"genre,omitempty"`
	Duration   *string   `json:"duration,omitempty"`
	EpisodeURL *string   `json:"episode_url,omitempty"`
	Thumbnail  *string   `json:"thumbnail,omitempty"`
	ListingURL string    `json:"listing_url"`
}

// EpisodeLink pairs a broadcast with the detail page its summary comes from.
type EpisodeLink struct {
	BroadcastID int64  `json:"broadcast_id"`
	URL         string `json:"url"`
}
