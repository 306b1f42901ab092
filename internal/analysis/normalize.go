package analysis

import (
	"regexp"
	"strings"
)

var wsRe = regexp.MustCompile(`\s+`)

// NormalizeCompany maps a company name to its identity key: lowercased with
// runs of whitespace collapsed to single spaces. Normalizing an already
// normalized name returns it unchanged.
func NormalizeCompany(name string) string {
	return wsRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), " ")
}
