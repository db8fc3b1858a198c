package models

// Channel is one row of the channel catalog (chaines). Name is the natural key;
// comparisons on it are case-insensitive.
type Channel struct {
	ID   int64   `json:"id,omitempty"`
	Name string  `json:"name"`
	URL  *string `json:"url,omitempty"`
	Logo *string `json:"logo,omitempty"`
}

// ChannelSource is the minimal projection the broadcast fetcher needs.
type ChannelSource struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}
