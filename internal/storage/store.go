package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fundlens/fundlens/internal/model"
)

// SaveJSON writes v as indented JSON at path, creating parent directories.
func SaveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// SaveFundDocument persists one scraped fund document under the dated
// output tree and returns the path written.
func SaveFundDocument(outputDir string, asOf time.Time, group string, doc *model.FundDocument) (string, error) {
	path := FundDocumentPath(outputDir, asOf, group, doc.SourceURL)
	if err := SaveJSON(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

// SaveAggregation persists one group's aggregation result and returns the
// path written.
func SaveAggregation(analysisDir string, asOf time.Time, analysis, group string, res *model.AggregationResult) (string, error) {
	path := AnalysisPath(analysisDir, asOf, analysis, group)
	if err := SaveJSON(path, res); err != nil {
		return "", err
	}
	return path, nil
}

// LoadAggregation reads a stored aggregation result.
func LoadAggregation(analysisDir, date, analysis, group string) (*model.AggregationResult, error) {
	path := filepath.Join(analysisDir, date, fmt.Sprintf("%s_%s.json", analysis, group))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var res model.AggregationResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &res, nil
}

// LoadFundDocuments reads every fund document stored for one date and group,
// sorted by file name.
func LoadFundDocuments(outputDir, date, group string) ([]*model.FundDocument, error) {
	dir := filepath.Join(outputDir, date, group)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []*model.FundDocument{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	docs := make([]*model.FundDocument, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var doc model.FundDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

// ListAnalyses returns the {analysis}_{group} result files stored for one
// date, split into (analysis, group) pairs.
func ListAnalyses(analysisDir, date string) ([][2]string, error) {
	dir := filepath.Join(analysisDir, date)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return [][2]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	pairs := make([][2]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		base := strings.TrimSuffix(name, ".json")
		idx := strings.Index(base, "_")
		if idx <= 0 || idx == len(base)-1 {
			continue
		}
		pairs = append(pairs, [2]string{base[:idx], base[idx+1:]})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	return pairs, nil
}
