package parser

import (
	"regexp"
	"strconv"
	"strings"

	"bookscout/internal/models"
)

var (
	// "<title> (<series list>)" with the parenthetical at the very end.
	titleSeriesRe = regexp.MustCompile(`^(.+?)\s*\(([^()]*)\)$`)

	// One "<name> #<volume>" entry of a series list. The name never holds '#',
	// so a list missing its ';' separators is not read as one entry.
	seriesEntryRe = regexp.MustCompile(`^([^#]+?)[\s,;]*#\s*(\d+(?:\.\d+)?)$`)
)

// ParseTitleSeries splits a compound result title such as
// "The Colour of Magic (Discworld #1; Rincewind #1)" into the bare title and
// its series memberships.
//
// Text without a trailing parenthetical, or whose parenthetical holds no
// "<name> #<volume>" entry, is returned whole as the title with nil series.
func ParseTitleSeries(text string) (string, []models.SeriesMembership) {
	text = normalizeSpace(text)

	m := titleSeriesRe.FindStringSubmatch(text)
	if m == nil {
		return text, nil
	}

	title := strings.TrimSpace(m[1])
	series := parseSeriesList(m[2])
	if title == "" || len(series) == 0 {
		return text, nil
	}
	return title, series
}

func parseSeriesList(list string) []models.SeriesMembership {
	var out []models.SeriesMembership

	for _, piece := range strings.Split(list, ";") {
		m := seriesEntryRe.FindStringSubmatch(strings.TrimSpace(piece))
		if m == nil {
			continue
		}

		name := strings.TrimSpace(strings.TrimRight(m[1], " \t,;"))
		if name == "" {
			continue
		}

		volume, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}

		out = append(out, models.SeriesMembership{Name: name, Volume: volume})
	}

	return out
}

// normalizeSpace collapses whitespace runs (result markup wraps titles across lines).
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
