package parser

import "regexp"

// Resizing suffix right before the extension: "14497._SY75_.jpg", "a_SY75_.jpg",
// or a chain such as "a._SX318_SY475_.jpg". The chain goes as one unit.
var coverSizeTokenRe = regexp.MustCompile(`(?:\.?_(?:[[:alnum:]]{4,5}_)+)+(\.[[:alnum:]]+(?:[?#].*)?)$`)

// SanitizeCoverURL strips image-resizing tokens so the URL points at the
// full-resolution cover. Applying it twice gives the same result.
func SanitizeCoverURL(raw string) string {
	for {
		clean := coverSizeTokenRe.ReplaceAllString(raw, "$1")
		if clean == raw {
			return clean
		}
		raw = clean
	}
}
