package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/sitebrief/config"
)

var acmeHTML = `<html><head><title>Acme Plumbing</title>
<script>window.analytics = {};</script><style>body { color: #1e90ff; }</style></head>
<body><header><nav><a href="/about">About</a></nav></header>
<main><article><h1>Acme Plumbing</h1>
<p>Acme Plumbing, est. 1998, is a family-run plumbing company serving the greater Springfield area.</p>
<p>` + strings.Repeat("We fix leaks, install water heaters and clear drains for homes and businesses. ", 6) + `</p>
</article></main></body></html>`

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "sitebrief-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(acmeHTML))
	})
	mux.HandleFunc("/shell", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><h1>Loading Acme</h1><div id="root"></div>
<noscript>You need to enable JavaScript to run this app.</noscript><script src="/app.js"></script></body></html>`))
	})
	mux.HandleFunc("/old-home", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/feed.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestDirect() *DirectStrategy {
	return NewDirectStrategy(config.FetchConfig{
		UserAgent:       "sitebrief-test",
		HomepageTimeout: 5 * time.Second,
		SubpageTimeout:  5 * time.Second,
	})
}

func TestDirectStrategy_Fetch(t *testing.T) {
	srv := newTestSite(t)

	page, err := newTestDirect().Fetch(context.Background(), srv.URL+"/", Homepage)

	require.NoError(t, err)
	assert.Contains(t, page.Markdown, "Acme Plumbing, est. 1998")
	assert.NotContains(t, page.Markdown, "window.analytics")
	assert.Contains(t, page.HTML, "#1e90ff")
	assert.False(t, page.Thin)
}

func TestDirectStrategy_RecordsFinalURL(t *testing.T) {
	srv := newTestSite(t)

	page, err := newTestDirect().Fetch(context.Background(), srv.URL+"/old-home", Homepage)

	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/", page.FinalURL)
}

func TestDirectStrategy_HTTPError(t *testing.T) {
	srv := newTestSite(t)

	_, err := newTestDirect().Fetch(context.Background(), srv.URL+"/missing", Subpage)

	require.Error(t, err)
	assert.Equal(t, "direct fetch: HTTP 404 for "+srv.URL+"/missing", err.Error())
}

func TestDirectStrategy_NonHTML(t *testing.T) {
	srv := newTestSite(t)

	_, err := newTestDirect().Fetch(context.Background(), srv.URL+"/feed.json", Subpage)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-html")
}

func TestDirectStrategy_ShellMarkedThin(t *testing.T) {
	srv := newTestSite(t)

	page, err := newTestDirect().Fetch(context.Background(), srv.URL+"/shell", Homepage)

	require.NoError(t, err)
	assert.True(t, page.Thin)
	assert.Contains(t, page.Markdown, "Loading Acme")
}

func TestDirectStrategy_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := newTestDirect().Fetch(context.Background(), addr, Homepage)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "direct fetch: request failed")
}
