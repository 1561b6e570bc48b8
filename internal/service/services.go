package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"bookscout/internal/models"
	"bookscout/internal/parser"
)

var tracer = otel.Tracer("bookscout/internal/service")

var ErrEmptyQuery = errors.New("empty search query")

// Fetcher loads a page and parses it as HTML. network.HTTPFetcher is the production one.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*goquery.Document, error)
}

// EnrichError means a book's detail page could not be loaded.
// It is scoped to one result; the rest of the search is unaffected.
type EnrichError struct {
	URL string
	Err error
}

func (e *EnrichError) Error() string {
	return fmt.Sprintf("enrich %s: %v", e.URL, e.Err)
}

func (e *EnrichError) Unwrap() error { return e.Err }

// Result is one book of a search. When Err is set the detail page failed to load
// and Book.Pages is 0 because it is unknown, not because the page said so.
type Result struct {
	Book models.Book
	Err  error
}

type Options struct {
	// MaxInFlight bounds concurrent detail-page fetches. Values below 1 mean 1.
	MaxInFlight int

	// DetailTimeout bounds each detail-page fetch; 0 disables the per-fetch limit.
	DetailTimeout time.Duration

	Logger *zap.Logger
}

type CatalogClient struct {
	fetcher Fetcher
	baseURL *url.URL
	opts    Options
	log     *zap.Logger
}

func NewCatalogClient(fetcher Fetcher, baseURL string, opts Options) (*CatalogClient, error) {
	if fetcher == nil {
		return nil, errors.New("catalog client needs a fetcher")
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("catalog url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("catalog url %q is not absolute", baseURL)
	}

	if opts.MaxInFlight < 1 {
		opts.MaxInFlight = 1
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &CatalogClient{
		fetcher: fetcher,
		baseURL: u,
		opts:    opts,
		log:     log,
	}, nil
}

// SearchURL is the first results page for query, percent-encoded (spaces as %20).
func (c *CatalogClient) SearchURL(query string) string {
	// QueryEscape already turns a literal '+' into %2B, so every remaining '+' is a space.
	q := strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
	return fmt.Sprintf("%s/search?q=%s&tab=books", c.baseURL.String(), q)
}

// Search returns the books of the first results page for query in page order.
//
// Only a failed results-page fetch (or the caller giving up) fails the whole call.
// Rows without a title are dropped; a failed detail page is reported on its Result.
func (c *CatalogClient) Search(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	ctx, span := tracer.Start(ctx, "Search", trace.WithAttributes(attribute.String("query", query)))
	defer span.End()

	searchURL := c.SearchURL(query)
	c.log.Debug("search", zap.String("url", searchURL))

	doc, err := c.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search page fetch failed")
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	rows, rowErrs := parser.ScanResults(doc, c.baseURL)
	for _, rowErr := range rowErrs {
		c.log.Warn("skipping result row", zap.String("query", query), zap.Error(rowErr))
	}
	span.SetAttributes(attribute.Int("rows", len(rows)), attribute.Int("skipped_rows", len(rowErrs)))

	pages, errs := c.enrichAll(ctx, rows)
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "search abandoned")
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	results := make([]Result, len(rows))
	for i, row := range rows {
		results[i] = Result{Book: assemble(row, pages[i]), Err: errs[i]}
		if errs[i] != nil {
			c.log.Warn("detail page failed", zap.String("url", row.DetailURL), zap.Error(errs[i]))
		}
	}

	c.log.Info("search finished",
		zap.String("query", query),
		zap.Int("books", len(results)),
		zap.Int("skipped_rows", len(rowErrs)),
	)
	return results, nil
}

// enrichAll fetches every row's page count with at most MaxInFlight requests running.
// Each goroutine writes only its own row's slots, so results line up with rows
// regardless of completion order.
func (c *CatalogClient) enrichAll(ctx context.Context, rows []parser.Row) ([]uint, []error) {
	pages := make([]uint, len(rows))
	errs := make([]error, len(rows))

	sem := semaphore.NewWeighted(int64(c.opts.MaxInFlight))
	var wg sync.WaitGroup

	for i, row := range rows {
		// Acquire only fails once ctx is done; Search reports that itself.
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(i int, detailURL string) {
			defer wg.Done()
			defer sem.Release(1)
			pages[i], errs[i] = c.Enrich(ctx, detailURL)
		}(i, row.DetailURL)
	}

	wg.Wait()
	return pages, errs
}

// Enrich loads a book's detail page and returns its page count (0 when the page
// has none). A page that cannot be loaded is an *EnrichError, never a silent 0.
func (c *CatalogClient) Enrich(ctx context.Context, detailURL string) (uint, error) {
	ctx, span := tracer.Start(ctx, "Enrich", trace.WithAttributes(attribute.String("url", detailURL)))
	defer span.End()

	if c.opts.DetailTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.DetailTimeout)
		defer cancel()
	}

	doc, err := c.fetcher.Fetch(ctx, detailURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "detail page fetch failed")
		return 0, &EnrichError{URL: detailURL, Err: err}
	}

	pages := parser.ExtractPageCount(doc)
	if pages == 0 {
		c.log.Debug("page count absent", zap.String("url", detailURL))
	}
	span.SetAttributes(attribute.Int("pages", int(pages)))
	return pages, nil
}

func assemble(row parser.Row, pages uint) models.Book {
	title, series := parser.ParseTitleSeries(row.TitleSeries)
	return models.Book{
		Title:      title,
		Authors:    row.Authors,
		Pages:      pages,
		Series:     series,
		URL:        row.DetailURL,
		CoverImage: row.CoverURL,
	}
}

// Books drops the per-result errors and keeps the records in order.
func Books(results []Result) []models.Book {
	books := make([]models.Book, len(results))
	for i, r := range results {
		books[i] = r.Book
	}
	return books
}
