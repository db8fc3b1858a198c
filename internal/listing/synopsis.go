package listing

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	selSynopsis      = ".synopsis"
	selSynopsisTitle = ".synopsis-title"
	selSynopsisText  = ".synopsis-text"

	synopsisTitlePrefix = "Résumé "
)

// Synopsis is the summary block of an episode detail page.
type Synopsis struct {
	FullTitle *string
	Text      *string
}

// ParseSynopsis reads the synopsis block. ok is false when the page has none,
// which is normal for many broadcasts.
func ParseSynopsis(doc *goquery.Document) (syn Synopsis, ok bool) {
	block := doc.Find(selSynopsis).First()
	if block.Length() == 0 {
		return Synopsis{}, false
	}
	title := text(block.Find(selSynopsisTitle).First())
	if title != nil {
		title = clean(strings.TrimPrefix(*title, synopsisTitlePrefix))
	}
	return Synopsis{
		FullTitle: title,
		Text:      text(block.Find(selSynopsisText).First()),
	}, true
}
