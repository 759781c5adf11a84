// Package insights turns aggregated monthly statistics into short
// human-readable advisory strings via a generative-text call. Generation is
// best-effort: any failure falls back to a fixed triple so the surrounding
// reporting job never aborts.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"fintra/internal/logger"
)

// insightCount is the number of advisory strings a report carries.
const insightCount = 3

// Stats is the slice of monthly aggregates the generator needs. Amounts are
// in cents.
type Stats struct {
	TotalIncome   int64
	TotalExpenses int64
	ByCategory    map[string]int64
}

// Fallback is returned whenever the generative call or its parsing fails.
var Fallback = []string{
	"Your highest expense category this month might need attention.",
	"Consider setting up a budget for better financial management.",
	"Track your recurring expenses to identify potential savings.",
}

var codeFenceRe = regexp.MustCompile("```(?:json)?\n?")

// Generator produces monthly insights from a TextGenerator.
type Generator struct {
	client TextGenerator
}

// NewGenerator creates a Generator backed by the given text client.
func NewGenerator(client TextGenerator) *Generator {
	return &Generator{client: client}
}

// Generate returns exactly three advisory strings for the given month.
// It never fails: call errors, malformed JSON, and wrong-sized responses all
// degrade to Fallback.
func (g *Generator) Generate(ctx context.Context, stats Stats, monthLabel string) []string {
	prompt := buildPrompt(stats, monthLabel)

	raw, err := g.client.GenerateText(ctx, prompt)
	if err != nil {
		logger.Get().Warnw("insight generation failed, using fallback",
			"month", monthLabel,
			"error", err,
		)
		return Fallback
	}

	cleaned := strings.TrimSpace(codeFenceRe.ReplaceAllString(raw, ""))

	var parsed []string
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		logger.Get().Warnw("insight response was not a JSON array, using fallback",
			"month", monthLabel,
			"error", err,
		)
		return Fallback
	}
	if len(parsed) != insightCount {
		logger.Get().Warnw("insight response had wrong element count, using fallback",
			"month", monthLabel,
			"count", len(parsed),
		)
		return Fallback
	}

	return parsed
}

// buildPrompt renders the financial data into the analysis prompt. Category
// names are sorted so the prompt is stable for a given stats value.
func buildPrompt(stats Stats, monthLabel string) string {
	categories := make([]string, 0, len(stats.ByCategory))
	for name := range stats.ByCategory {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	breakdown := make([]string, 0, len(categories))
	for _, name := range categories {
		breakdown = append(breakdown, fmt.Sprintf("%s: %s", name, formatAmount(stats.ByCategory[name])))
	}

	net := stats.TotalIncome - stats.TotalExpenses
	return fmt.Sprintf(`Analyze this financial data and provide 3 concise, actionable insights.
Focus on spending patterns and practical advice.
Keep it friendly and conversational.

Financial Data for %s:
- Total Income: %s
- Total Expenses: %s
- Net Income: %s
- Expense Categories: %s

Format the response as a JSON array of strings, like this:
["insight 1", "insight 2", "insight 3"]`,
		monthLabel,
		formatAmount(stats.TotalIncome),
		formatAmount(stats.TotalExpenses),
		formatAmount(net),
		strings.Join(breakdown, ", "),
	)
}

// formatAmount renders cents as a currency string with two decimal places.
func formatAmount(cents int64) string {
	return fmt.Sprintf("₹%.2f", float64(cents)/100)
}
