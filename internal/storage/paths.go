package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// DateLayout is the directory-name form of the as-of date.
const DateLayout = "20060102"

var dateDirRe = regexp.MustCompile(`^\d{8}$`)

// slugFromSource derives a filename-safe slug from a fund source URL by
// joining its last two path segments. "https://coin.zerodha.com/mf/fund/X/y"
// becomes "X_y".
func slugFromSource(source string) string {
	trimmed := strings.Trim(source, "/")
	parts := strings.Split(trimmed, "/")
	n := len(parts)
	var segs []string
	if n >= 2 {
		segs = parts[n-2:]
	} else {
		segs = parts
	}
	slug := strings.Join(segs, "_")
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, slug)
	if slug == "" {
		slug = "fund"
	}
	return slug
}

// FundDocumentPath is where one fund's scraped document lives:
// {outputDir}/{YYYYMMDD}/{group}/coin_{slug}.json.
func FundDocumentPath(outputDir string, asOf time.Time, group, source string) string {
	return filepath.Join(outputDir, asOf.Format(DateLayout), group,
		fmt.Sprintf("coin_%s.json", slugFromSource(source)))
}

// AnalysisPath is where one group's aggregation result lives:
// {analysisDir}/{YYYYMMDD}/{analysis}_{group}.json.
func AnalysisPath(analysisDir string, asOf time.Time, analysis, group string) string {
	return filepath.Join(analysisDir, asOf.Format(DateLayout),
		fmt.Sprintf("%s_%s.json", analysis, group))
}

// ListDates returns the date directories under root, newest first. A missing
// root is treated as empty, not an error.
func ListDates(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing dates in %s: %w", root, err)
	}
	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && dateDirRe.MatchString(e.Name()) {
			dates = append(dates, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// ListGroups returns the group directories under one date of the output
// tree, sorted by name.
func ListGroups(outputDir, date string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(outputDir, date))
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing groups for %s: %w", date, err)
	}
	groups := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			groups = append(groups, e.Name())
		}
	}
	sort.Strings(groups)
	return groups, nil
}
