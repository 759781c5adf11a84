package insights

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubClient struct {
	response string
	err      error
	prompt   string
}

func (s *stubClient) GenerateText(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	stats := Stats{
		TotalIncome:   500000,
		TotalExpenses: 320000,
		ByCategory:    map[string]int64{"groceries": 120000, "housing": 200000},
	}

	t.Run("parses_clean_json_array", func(t *testing.T) {
		client := &stubClient{response: `["one", "two", "three"]`}
		got := NewGenerator(client).Generate(ctx, stats, "April")

		if len(got) != 3 || got[0] != "one" || got[2] != "three" {
			t.Errorf("unexpected insights %v", got)
		}
	})

	t.Run("strips_code_fences", func(t *testing.T) {
		client := &stubClient{response: "```json\n[\"a\", \"b\", \"c\"]\n```"}
		got := NewGenerator(client).Generate(ctx, stats, "April")

		if len(got) != 3 || got[0] != "a" {
			t.Errorf("unexpected insights %v", got)
		}
	})

	t.Run("call_failure_falls_back", func(t *testing.T) {
		client := &stubClient{err: errors.New("rate limited")}
		got := NewGenerator(client).Generate(ctx, stats, "April")

		if len(got) != 3 || got[0] != Fallback[0] {
			t.Errorf("expected fallback, got %v", got)
		}
	})

	t.Run("malformed_json_falls_back", func(t *testing.T) {
		client := &stubClient{response: "Here are some tips: save more!"}
		got := NewGenerator(client).Generate(ctx, stats, "April")

		if got[0] != Fallback[0] {
			t.Errorf("expected fallback, got %v", got)
		}
	})

	t.Run("wrong_count_falls_back", func(t *testing.T) {
		client := &stubClient{response: `["only one"]`}
		got := NewGenerator(client).Generate(ctx, stats, "April")

		if got[0] != Fallback[0] {
			t.Errorf("expected fallback, got %v", got)
		}
	})

	t.Run("prompt_carries_formatted_data", func(t *testing.T) {
		client := &stubClient{response: `["a", "b", "c"]`}
		NewGenerator(client).Generate(ctx, stats, "April")

		for _, want := range []string{"April", "₹5000.00", "₹3200.00", "groceries: ₹1200.00", "housing: ₹2000.00"} {
			if !strings.Contains(client.prompt, want) {
				t.Errorf("expected prompt to contain %q\nprompt: %s", want, client.prompt)
			}
		}
	})
}
