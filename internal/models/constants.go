package models

import "strings"

// Provider names one channel-numbering column of the catalog.
type Provider string

// Provider numbering columns (aligned with the chaines table).
const (
	ProviderTNT      Provider = "numTNT"
	ProviderOrange   Provider = "numOrange"
	ProviderSFR      Provider = "numSFR"
	ProviderFree     Provider = "numFree"
	ProviderBouygues Provider = "numBouygues"
	ProviderCanal    Provider = "numCanal"
)

// Providers lists every known numbering column in table order.
var Providers = []Provider{
	ProviderTNT, ProviderOrange, ProviderSFR, ProviderFree, ProviderBouygues, ProviderCanal,
}

// ParseProvider matches s case-insensitively against the known columns.
func ParseProvider(s string) (Provider, bool) {
	for _, p := range Providers {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, true
		}
	}
	return "", false
}

// Valid reports whether p is one of the known columns. Only valid providers may
// be spliced into SQL as a column name.
func (p Provider) Valid() bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}
