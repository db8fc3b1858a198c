package listing

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	reChannelNumber = regexp.MustCompile(`N°\s*(\d+)`)
	reStartTime     = regexp.MustCompile(`(\d{1,2})\s*[hH:]\s*(\d{2})?`)
)

// clean collapses whitespace and returns nil for empty text.
func clean(s string) *string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return nil
	}
	return &s
}

func text(s *goquery.Selection) *string {
	if s == nil || s.Length() == 0 {
		return nil
	}
	return clean(s.Text())
}

// href resolves the attribute attr of s against the page URL.
func href(doc *goquery.Document, s *goquery.Selection, attr string) *string {
	if s == nil || s.Length() == 0 {
		return nil
	}
	raw, ok := s.Attr(attr)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	if doc != nil && doc.Url != nil {
		ref = doc.Url.ResolveReference(ref)
	}
	out := ref.String()
	return &out
}

// imageSource picks the real image of an <img>: lazy-loaded images keep it in
// data-src and a placeholder in src.
func imageSource(doc *goquery.Document, img *goquery.Selection) *string {
	if img == nil || img.Length() == 0 {
		return nil
	}
	img = img.First()
	if img.HasClass("lazyload") {
		if u := href(doc, img, "data-src"); u != nil {
			return u
		}
	}
	return href(doc, img, "src")
}

// channelNumber parses "N°12" into 12.
func channelNumber(s string) *int {
	m := reChannelNumber.FindStringSubmatch(s)
	if m == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return &n
		}
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// stripChannelNumber removes the "N°12" badge some pages render inside the name link.
func stripChannelNumber(name *string) *string {
	if name == nil {
		return nil
	}
	return clean(reChannelNumber.ReplaceAllString(*name, ""))
}

// startTime normalizes "20h55", "20:55" or "7h" to "HH:MM".
func startTime(s *string) *string {
	if s == nil {
		return nil
	}
	m := reStartTime.FindStringSubmatch(*s)
	if m == nil {
		return nil
	}
	h, err := strconv.Atoi(m[1])
	if err != nil || h > 23 {
		return nil
	}
	minute := 0
	if m[2] != "" {
		if minute, err = strconv.Atoi(m[2]); err != nil || minute > 59 {
			return nil
		}
	}
	out := fmt.Sprintf("%02d:%02d", h, minute)
	return &out
}
