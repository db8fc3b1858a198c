package listing

import (
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DayURL returns the schedule URL of a channel for date: the date, formatted
// YYYY-MM-DD, is inserted as a path segment before the final one.
//
//	https://host/programme/chaine/programme-tf1-19.html
//	https://host/programme/chaine/2026-10-19/programme-tf1-19.html
func DayURL(channelURL string, date time.Time) (string, error) {
	u, err := url.Parse(channelURL)
	if err != nil {
		return "", errors.Wrapf(err, "parse channel url %q", channelURL)
	}
	trailing := strings.HasSuffix(u.Path, "/")
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return "", errors.Errorf("channel url %q has no path", channelURL)
	}
	segs := strings.Split(path, "/")
	last := segs[len(segs)-1]
	segs = append(segs[:len(segs)-1], date.Format(time.DateOnly), last)
	u.Path = "/" + strings.Join(segs, "/")
	if trailing {
		u.Path += "/"
	}
	u.RawPath = ""
	return u.String(), nil
}
