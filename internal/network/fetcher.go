package network

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
)

const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// maxBodySize caps a single page read; catalog pages are well below it.
const maxBodySize = 8 << 20

// HTTPFetcher loads HTML pages and parses them into goquery documents.
// It is safe for concurrent use and meant to be built once per process.
type HTTPFetcher struct {
	client *resty.Client
}

func NewHTTPFetcher(httpClient *http.Client, userAgent string) *HTTPFetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	client := resty.NewWithClient(httpClient).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml")

	return &HTTPFetcher{client: client}
}

// Fetch GETs rawURL and parses the response body as HTML.
// Every failure is a *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode()}
	}

	utf8Body, err := charset.NewReader(io.LimitReader(body, maxBodySize), resp.Header().Get("Content-Type"))
	if err != nil {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode(), Err: fmt.Errorf("decode body: %w", err)}
	}

	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode(), Err: fmt.Errorf("parse html: %w", err)}
	}
	return doc, nil
}
