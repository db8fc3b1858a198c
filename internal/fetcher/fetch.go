package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// maxBodySize caps one page body.
const maxBodySize = 16 << 20

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	// Interval is the minimum spacing between two requests; 0 disables pacing.
	Interval time.Duration
	Jar      http.CookieJar
}

// Client fetches HTML pages one at a time with a shared cookie jar.
type Client struct {
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// New builds a Client from opts.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	c := &Client{
		http:      &http.Client{Timeout: opts.Timeout, Jar: opts.Jar},
		userAgent: opts.UserAgent,
	}
	if opts.Interval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(opts.Interval), 1)
	}
	return c
}

// Fetch GETs url and parses it as HTML. Network errors, timeouts, non-2xx
// statuses and unparseable bodies come back as a skip Result, never as a panic
// or an error return.
func (c *Client) Fetch(ctx context.Context, url string) Result {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return skip(url, errors.Wrap(err, "rate limit"))
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return skip(url, errors.Wrap(err, "NewRequest"))
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return skip(url, errors.Wrap(err, "Do"))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return skip(url, errors.Errorf("HTTP %d", resp.StatusCode))
	}
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return skip(url, errors.Wrap(err, "parse html"))
	}
	doc.Url = resp.Request.URL
	return Result{URL: url, Doc: doc}
}
