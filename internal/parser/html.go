package parser

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	bookRowSelector = "[itemtype='http://schema.org/Book']"
	titleSelector   = "a.bookTitle"
	authorSelector  = "a.authorName"
	coverSelector   = "img.bookCover, img[itemprop='image']"
)

var (
	ErrMissingTitle = errors.New("row has no title")
	ErrMissingLink  = errors.New("row title has no usable link")
)

// RowError reports a search result row that could not be turned into a book.
type RowError struct {
	Index int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("result row %d: %v", e.Index, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Row is one candidate book of a search results page, before enrichment.
type Row struct {
	// Index is the row's position on the results page.
	Index int

	// TitleSeries is the raw "title (series #n)" text.
	TitleSeries string
	Authors     []string
	DetailURL   string

	// CoverURL is sanitized and absolute, or empty.
	CoverURL string
}

// ScanResults walks a search results page and returns its book rows in page order.
// Rows without a title or title link are skipped and reported as *RowError;
// relative links are resolved against base.
func ScanResults(doc *goquery.Document, base *url.URL) ([]Row, []error) {
	var (
		rows []Row
		errs []error
	)

	doc.Find(bookRowSelector).Each(func(i int, s *goquery.Selection) {
		row, err := scanRow(s, base)
		if err != nil {
			errs = append(errs, &RowError{Index: i, Err: err})
			return
		}
		row.Index = i
		rows = append(rows, row)
	})

	return rows, errs
}

func scanRow(s *goquery.Selection, base *url.URL) (Row, error) {
	link := s.Find(titleSelector).First()
	if link.Length() == 0 {
		return Row{}, ErrMissingTitle
	}

	text := normalizeSpace(link.Text())
	if text == "" {
		return Row{}, ErrMissingTitle
	}

	href := strings.TrimSpace(link.AttrOr("href", ""))
	if href == "" {
		return Row{}, ErrMissingLink
	}
	detailURL, err := resolve(base, href)
	if err != nil {
		return Row{}, fmt.Errorf("%w: %v", ErrMissingLink, err)
	}

	row := Row{
		TitleSeries: text,
		Authors:     findAuthors(s),
		DetailURL:   detailURL,
	}

	if src := strings.TrimSpace(s.Find(coverSelector).First().AttrOr("src", "")); src != "" {
		if cover, err := resolve(base, src); err == nil {
			row.CoverURL = SanitizeCoverURL(cover)
		}
	}

	return row, nil
}

func findAuthors(s *goquery.Selection) []string {
	var authors []string

	s.Find(authorSelector).Each(func(_ int, a *goquery.Selection) {
		name := a.Find("[itemprop='name']").First().Text()
		if strings.TrimSpace(name) == "" {
			name = a.Text()
		}
		if name = normalizeSpace(name); name != "" {
			authors = append(authors, name)
		}
	})

	return authors
}

func resolve(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("%q is not absolute", u.String())
	}
	return u.String(), nil
}
