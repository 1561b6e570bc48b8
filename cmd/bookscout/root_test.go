package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookscout/internal/httpapi"
)

const resultsPage = `<html><body><table>
<tr itemscope itemtype="http://schema.org/Book">
  <td><a href="/book/show/1.One"><img class="bookCover" src="/covers/1._SY75_.jpg"></a></td>
  <td>
    <a class="bookTitle" href="/book/show/1.One"><span itemprop="name">One (Numbers, #1)</span></a>
    <a class="authorName" href="/author/show/9"><span itemprop="name">Ann Author</span></a>
  </td>
</tr>
<tr itemscope itemtype="http://schema.org/Book">
  <td><span>no title link here</span></td>
</tr>
<tr itemscope itemtype="http://schema.org/Book">
  <td><a class="bookTitle" href="/book/show/2.Two"><span itemprop="name">Two</span></a></td>
</tr>
</table></body></html>`

func newCatalog(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ann author", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(resultsPage))
	})
	mux.HandleFunc("/book/show/1.One", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><span itemprop="numberOfPages">1,024 pages</span></body></html>`))
	})
	mux.HandleFunc("/book/show/2.Two", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func clearEnv(t *testing.T) {
	for _, key := range []string{"CATALOG_URL", "TOR_PROXY", "MAX_IN_FLIGHT", "HTTP_TIMEOUT", "DETAIL_TIMEOUT"} {
		t.Setenv(key, "")
	}
}

func TestSearchCommand(t *testing.T) {
	clearEnv(t)
	srv := newCatalog(t)

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"search", "--base", srv.URL, "--max-in-flight", "2", "--log-level", "error", "ann", "author"})
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2)

	var first, second httpapi.BookJSON
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, "One", first.Title)
	assert.Equal(t, []string{"Ann Author"}, first.Authors)
	assert.Equal(t, uint(1024), first.Pages)
	assert.Equal(t, []httpapi.SeriesJSON{{Name: "Numbers", Volume: 1}}, first.Series)
	assert.Equal(t, srv.URL+"/book/show/1.One", first.URL)
	assert.Equal(t, srv.URL+"/covers/1.jpg", first.CoverImage)
	assert.Empty(t, first.Error)

	assert.Equal(t, "Two", second.Title)
	assert.Zero(t, second.Pages)
	assert.NotEmpty(t, second.Error)

	assert.Contains(t, stderr.String(), "warning: Two:")
}

func TestSearchCommandNeedsQuery(t *testing.T) {
	clearEnv(t)

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"search"})
	require.Error(t, cmd.Execute())
	assert.Empty(t, stdout.String())
}

func TestSearchCommandUnreachableCatalog(t *testing.T) {
	clearEnv(t)
	srv := newCatalog(t)
	base := srv.URL
	srv.Close()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"search", "--base", base, "--log-level", "error", "anything"})
	require.Error(t, cmd.Execute())
	assert.Empty(t, stdout.String())
}
