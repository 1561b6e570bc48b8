package parser

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Older detail pages mark the count with itemprop, the current layout with a test id
// ("366 pages, Paperback").
const pageCountSelector = "[itemprop='numberOfPages'], [data-testid='pagesFormat']"

// ExtractPageCount reads the page count from a book detail page.
// It returns 0 when the field is missing or does not start with a number;
// callers treat 0 as "unknown".
func ExtractPageCount(doc *goquery.Document) uint {
	if doc == nil {
		return 0
	}

	field := doc.Find(pageCountSelector).First()
	if field.Length() == 0 {
		return 0
	}

	fields := strings.Fields(field.Text())
	if len(fields) == 0 {
		return 0
	}

	token := strings.NewReplacer(",", "", ".", "", " ", "").Replace(fields[0])
	n, err := strconv.ParseUint(token, 10, 0)
	if err != nil {
		return 0
	}
	return uint(n)
}
