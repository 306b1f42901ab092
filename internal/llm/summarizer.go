// Package llm generates optional natural-language commentary on aggregation
// results. The summary is a separate artifact; it never feeds back into the
// numbers.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/fundlens/fundlens/internal/config"
	"github.com/fundlens/fundlens/internal/model"
)

// Summarizer turns an AggregationResult into a short markdown commentary via
// the OpenAI Chat Completions API.
type Summarizer struct {
	client *openai.Client
	cfg    config.LLM
}

// NewSummarizer builds a summarizer. The API key comes from the caller, not
// from config, so the key never lands in a config file on disk.
func NewSummarizer(cfg config.LLM, apiKey string) (*Summarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Summarizer{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// Summarize returns markdown commentary on one group's result.
func (s *Summarizer) Summarize(ctx context.Context, analysis, group string, res *model.AggregationResult) (string, error) {
	modelName := s.cfg.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	maxTokens := s.cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 800
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an analyst commenting on mutual fund holdings overlap. Only discuss companies and figures present in the data given to you. Answer in concise markdown.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(analysis, group, res),
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// buildPrompt renders the top of each ranking into a compact textual table.
func buildPrompt(analysis, group string, res *model.AggregationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis %q, group %q: %d funds, %d unique companies.\n\n", analysis, group, res.TotalFunds, res.UniqueCompanies)

	writeRanking(&b, "Most widely held", res.RankedByFundCount)
	writeRanking(&b, "Largest combined allocation", res.RankedByTotalWeight)
	writeRanking(&b, "Held by every fund", res.CommonToAllFunds)

	b.WriteString("Summarize the concentration and overlap picture in at most three short paragraphs.")
	return b.String()
}

func writeRanking(b *strings.Builder, title string, stats []model.CompanyStat) {
	if len(stats) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	limit := len(stats)
	if limit > 15 {
		limit = 15
	}
	for _, s := range stats[:limit] {
		fmt.Fprintf(b, "- %s: %d funds, total %.2f%%, avg %.2f%%\n", s.CompanyName, s.FundCount, s.TotalWeight, s.AvgWeight)
	}
	b.WriteString("\n")
}
