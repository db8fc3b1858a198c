package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchParsesPage(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		gotLang = r.Header.Get("Accept-Language")
		fmt.Fprint(w, `<html><body><h1 class="title">Journal de 20h</h1></body></html>`)
	}))
	defer srv.Close()

	c := New(Options{UserAgent: "TVListings/test"})
	res := c.Fetch(context.Background(), srv.URL+"/page")
	require.True(t, res.OK(), "reason: %v", res.Reason)
	assert.Equal(t, "Journal de 20h", res.Doc.Find(".title").Text())
	assert.Equal(t, srv.URL+"/page", res.Doc.Url.String())
	assert.Equal(t, "TVListings/test", gotUA)
	assert.Contains(t, gotLang, "fr")
}

func TestFetchSkipsErrorStatus(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusForbidden} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", code)
			}))
			defer srv.Close()

			res := New(Options{}).Fetch(context.Background(), srv.URL)
			assert.False(t, res.OK())
			require.Error(t, res.Reason)
			assert.Equal(t, fmt.Sprintf("HTTP %d", code), res.Reason.Error())
			assert.Nil(t, res.Doc)
		})
	}
}

func TestFetchSkipsOnTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	res := New(Options{Timeout: 50 * time.Millisecond}).Fetch(context.Background(), srv.URL)
	assert.False(t, res.OK())
	assert.Error(t, res.Reason)
}

func TestFetchSkipsUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	res := New(Options{Timeout: time.Second}).Fetch(context.Background(), addr)
	assert.False(t, res.OK())
	assert.Equal(t, addr, res.URL)
}

func TestFetchSkipsMalformedURL(t *testing.T) {
	res := New(Options{}).Fetch(context.Background(), "http://[::1")
	assert.False(t, res.OK())
	assert.Error(t, res.Reason)
}

func TestFetchPacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()

	c := New(Options{Interval: 100 * time.Millisecond})
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.True(t, c.Fetch(context.Background(), srv.URL).OK())
	}
	assert.GreaterOrEqual(t, time.Since(start), 190*time.Millisecond)
}

func TestJarPersistsCookiesBetweenRuns(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("consent"); err == nil {
			seen = append(seen, c.Value)
		} else {
			http.SetCookie(w, &http.Cookie{Name: "consent", Value: "yes", Path: "/", MaxAge: 3600})
		}
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "cookies.json")
	jar, err := OpenJar(path)
	require.NoError(t, err)
	assert.Equal(t, path, jar.Path())
	require.True(t, New(Options{Jar: jar}).Fetch(context.Background(), srv.URL).OK())
	require.NoError(t, jar.Save())

	reloaded, err := OpenJar(path)
	require.NoError(t, err)
	u, _ := url.Parse(srv.URL)
	require.Len(t, reloaded.Cookies(u), 1)

	require.True(t, New(Options{Jar: reloaded}).Fetch(context.Background(), srv.URL).OK())
	assert.Equal(t, []string{"yes"}, seen)
}
