// Package listing turns fetched TV-guide pages into ordered records. Each
// record is read from its own card, so a missing element becomes a nil field
// of that record only. Pages without cards fall back to page-wide columns
// aligned by position.
package listing

import (
	"github.com/PuerkitoBio/goquery"
)

// Selectors of the provider channel grid.
const (
	selChannelItem   = ".gridRow-cardsChannelItem"
	selChannelNumber = ".gridRow-cardsChannelNumber"
	selChannelLink   = ".gridRow-cardsChannelItemLink"
)

// ChannelEntry is one channel of a provider listing page.
type ChannelEntry struct {
	Number *int
	Name   *string
	URL    *string
	Logo   *string
}

// ParseChannels extracts the channel grid of a provider page.
func ParseChannels(doc *goquery.Document) []ChannelEntry {
	items := doc.Find(selChannelItem)
	if items.Length() == 0 {
		return channelColumns(doc)
	}
	out := make([]ChannelEntry, 0, items.Length())
	items.Each(func(_ int, item *goquery.Selection) {
		e := ChannelEntry{Logo: imageSource(doc, item.Find("img"))}
		if num := item.Find(selChannelNumber).First(); num.Length() > 0 {
			e.Number = channelNumber(num.Text())
		}
		if link := item.Find(selChannelLink).First(); link.Length() > 0 {
			e.Name = stripChannelNumber(text(link))
			e.URL = href(doc, link, "href")
		}
		out = append(out, e)
	})
	return out
}

func channelColumns(doc *goquery.Document) []ChannelEntry {
	var numbers []*int
	doc.Find(selChannelNumber).Each(func(_ int, s *goquery.Selection) {
		numbers = append(numbers, channelNumber(s.Text()))
	})
	var names, urls []*string
	doc.Find(selChannelLink).Each(func(_ int, s *goquery.Selection) {
		names = append(names, stripChannelNumber(text(s)))
		urls = append(urls, href(doc, s, "href"))
	})

	out := make([]ChannelEntry, longest(len(numbers), len(names)))
	for i := range out {
		out[i] = ChannelEntry{
			Number: at(numbers, i),
			Name:   at(names, i),
			URL:    at(urls, i),
		}
	}
	return out
}
