package models

// ProviderSource is one configured provider listing page.
type ProviderSource struct {
	Provider Provider `json:"provider"`
	URL      string   `json:"url"`
}
