package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/voyagen/tvlistings/internal/fetcher"
)

// --- page fixtures ---

type gridChannel struct {
	number int
	name   string
	path   string
}

func channelGrid(chans ...gridChannel) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="gridRow">`)
	for _, c := range chans {
		fmt.Fprintf(&b, `<div class="gridRow-cardsChannelItem">
			<span class="gridRow-cardsChannelNumber">N°%d</span>
			<a class="gridRow-cardsChannelItemLink" href="%s">%s</a>
			<img src="/logos/%d.png">
		</div>`, c.number, c.path, c.name, c.number)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// daySchedule renders n broadcasts; episode(i) gives the detail link of the
// i-th one ("" for none).
func daySchedule(n int, episode func(i int) string) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	for i := 0; i < n; i++ {
		title := fmt.Sprintf(`Programme %d`, i+1)
		if episode != nil {
			if link := episode(i); link != "" {
				title = fmt.Sprintf(`<a href="%s">Programme %d</a>`, link, i+1)
			}
		}
		fmt.Fprintf(&b, `<div class="mainBroadcastCard">
			<p class="mainBroadcastCard-startingHour">%dh00</p>
			<h3 class="mainBroadcastCard-title">%s</h3>
			<p class="mainBroadcastCard-subtitle">Épisode %d</p>
			<p class="mainBroadcastCard-format">Magazine</p>
			<span class="mainBroadcastCard-durationContent">55min</span>
		</div>`, 8+i, title, i+1)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func synopsisPageHTML(title, text string) string {
	return fmt.Sprintf(`<html><body><section class="synopsis">
		<h2 class="synopsis-title">Résumé %s</h2><div class="synopsis-text">%s</div>
	</section></body></html>`, title, text)
}

// --- in-memory fetcher ---

type pageFetcher struct {
	pages map[string]string
	calls []string
}

func newPageFetcher() *pageFetcher {
	return &pageFetcher{pages: map[string]string{}}
}

func (f *pageFetcher) Fetch(_ context.Context, rawURL string) fetcher.Result {
	f.calls = append(f.calls, rawURL)
	body, ok := f.pages[rawURL]
	if !ok {
		return fetcher.Result{URL: rawURL, Reason: errors.New("HTTP 404")}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return fetcher.Result{URL: rawURL, Reason: err}
	}
	doc.Url, _ = url.Parse(rawURL)
	return fetcher.Result{URL: rawURL, Doc: doc}
}

func (f *pageFetcher) count(rawURL string) int {
	n := 0
	for _, c := range f.calls {
		if c == rawURL {
			n++
		}
	}
	return n
}

// --- dates ---

var testToday = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return testToday.AddDate(0, 0, offset)
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 19, 6, 30, 0, 0, time.UTC)
}
