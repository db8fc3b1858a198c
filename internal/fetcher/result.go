package fetcher

import "github.com/PuerkitoBio/goquery"

// Result is the outcome of one page fetch: either a parsed document or the
// reason the item was skipped. Skips are never retried within a run.
type Result struct {
	URL    string
	Doc    *goquery.Document
	Reason error
}

// OK reports whether the page was fetched and parsed.
func (r Result) OK() bool {
	return r.Reason == nil && r.Doc != nil
}

func skip(url string, reason error) Result {
	return Result{URL: url, Reason: reason}
}
