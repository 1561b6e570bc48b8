package models

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// SeriesMembership pairs a series name with the book's position in it.
// Volume is fractional for in-between novellas (e.g. 0.5).
type SeriesMembership struct {
	Name   string
	Volume float64
}

func (s SeriesMembership) String() string {
	return s.Name + " #" + strconv.FormatFloat(s.Volume, 'f', -1, 64)
}

// Book is a fully assembled catalog record.
type Book struct {
	Title   string
	Authors []string

	// Pages is 0 when the page count is unknown.
	Pages uint

	// Series is nil for standalone books and never an empty non-nil slice.
	Series []SeriesMembership

	// URL is the absolute detail-page URL.
	URL string

	// CoverImage is the absolute, full-resolution cover URL, or empty.
	CoverImage string
}

// Equal reports whether two records describe the same book.
// URL and CoverImage are ignored: they can differ cosmetically between fetches.
func (b Book) Equal(other Book) bool {
	if b.Title != other.Title || b.Pages != other.Pages {
		return false
	}
	if !slices.Equal(b.Authors, other.Authors) {
		return false
	}
	if (b.Series == nil) != (other.Series == nil) {
		return false
	}
	return slices.Equal(b.Series, other.Series)
}

func (b Book) String() string {
	var sb strings.Builder
	sb.WriteString(b.Title)

	if len(b.Series) > 0 {
		parts := make([]string, len(b.Series))
		for i, s := range b.Series {
			parts[i] = s.String()
		}
		fmt.Fprintf(&sb, " (%s)", strings.Join(parts, "; "))
	}

	if len(b.Authors) > 0 {
		sb.WriteString(" by ")
		sb.WriteString(strings.Join(b.Authors, ", "))
	}

	if b.Pages > 0 {
		fmt.Fprintf(&sb, ", %d pages", b.Pages)
	}
	return sb.String()
}
