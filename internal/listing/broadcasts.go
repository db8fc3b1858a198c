package listing

import (
	"github.com/PuerkitoBio/goquery"
)

// Selectors of a channel's daily schedule page.
const (
	selCard      = ".mainBroadcastCard"
	selStartTime = ".mainBroadcastCard-startingHour"
	selTitle     = ".mainBroadcastCard-title"
	selSubtitle  = ".mainBroadcastCard-subtitle"
	selGenre     = ".mainBroadcastCard-format"
	selDuration  = ".mainBroadcastCard-durationContent"
	selThumbnail = ".mainBroadcastCard-imageContent"
)

// BroadcastEntry is one airing of a daily schedule page.
type BroadcastEntry struct {
	StartTime  *string
	Title      *string
	Episode    *string
	Genre      *string
	Duration   *string
	EpisodeURL *string
	Thumbnail  *string
}

// ParseBroadcasts extracts the schedule of one channel for one day.
func ParseBroadcasts(doc *goquery.Document) []BroadcastEntry {
	cards := doc.Find(selCard)
	if cards.Length() == 0 {
		return broadcastColumns(doc)
	}
	out := make([]BroadcastEntry, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		e := BroadcastEntry{
			StartTime: startTime(text(card.Find(selStartTime).First())),
			Genre:     text(card.Find(selGenre).First()),
			Duration:  text(card.Find(selDuration).First()),
			Thumbnail: imageSource(doc, card.Find(selThumbnail).First().Find("img")),
		}
		if title := card.Find(selTitle).First(); title.Length() > 0 {
			e.Title, e.Episode, e.EpisodeURL = readTitle(doc, title)
		}
		out = append(out, e)
	})
	return out
}

// readTitle reads the title element together with the episode subtitle that
// directly follows it and the detail link it carries.
func readTitle(doc *goquery.Document, title *goquery.Selection) (name, episode, link *string) {
	name = text(title)
	if next := title.Next(); next.Is(selSubtitle) {
		episode = text(next)
	}
	a := title.Find("a[href]")
	if title.Is("a[href]") {
		a = title
	}
	return name, episode, href(doc, a.First(), "href")
}

func broadcastColumns(doc *goquery.Document) []BroadcastEntry {
	var starts []*string
	doc.Find(selStartTime).Each(func(_ int, s *goquery.Selection) {
		starts = append(starts, startTime(text(s)))
	})
	var titles, episodes, links []*string
	doc.Find(selTitle).Each(func(_ int, s *goquery.Selection) {
		name, episode, link := readTitle(doc, s)
		titles = append(titles, name)
		episodes = append(episodes, episode)
		links = append(links, link)
	})

	out := make([]BroadcastEntry, longest(len(starts), len(titles)))
	for i := range out {
		out[i] = BroadcastEntry{
			StartTime:  at(starts, i),
			Title:      at(titles, i),
			Episode:    at(episodes, i),
			EpisodeURL: at(links, i),
		}
	}
	return out
}
