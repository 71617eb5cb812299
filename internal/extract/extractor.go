package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/flow"
)

// LLMExtractor implements flow.Extractor on top of a chat model.
type LLMExtractor struct {
	gen     Generator
	company string
	timeout time.Duration
	log     *zap.Logger
}

func NewLLMExtractor(gen Generator, company string, log *zap.Logger) *LLMExtractor {
	return &LLMExtractor{gen: gen, company: company, timeout: 30 * time.Second, log: log}
}

type rawResult struct {
	Value         string `json:"value"`
	IsClear       bool   `json:"is_clear"`
	Action        string `json:"action"`
	ResponseText  string `json:"response_text"`
	CorrectedName string `json:"corrected_name"`
	Contact       string `json:"contact"`
}

// Extract classifies one transcript. Model failures and timeouts are
// returned as errors; the flow machine counts them as unclear.
func (e *LLMExtractor) Extract(ctx context.Context, q flow.Question, transcript string, s *flow.Session) (flow.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	out, err := e.gen.Generate(ctx, buildPrompt(e.company, q, transcript, s))
	if err != nil {
		e.log.Warn("extractor call failed",
			zap.String("question", q.Name),
			zap.Error(err))
		return flow.Result{}, err
	}

	raw, err := parseResult(out)
	if err != nil {
		e.log.Warn("extractor returned unparseable output",
			zap.String("question", q.Name),
			zap.String("output", truncate(out, 200)))
		return flow.Result{}, err
	}

	action, ok := parseAction(raw.Action)
	if !ok {
		return flow.Result{}, fmt.Errorf("extract: unknown action %q", raw.Action)
	}
	return flow.Result{
		Value:         raw.Value,
		IsClear:       raw.IsClear,
		Action:        action,
		ResponseText:  nullToEmpty(raw.ResponseText),
		CorrectedName: nullToEmpty(raw.CorrectedName),
		Contact:       nullToEmpty(raw.Contact),
	}, nil
}

func parseAction(s string) (flow.Action, bool) {
	switch s {
	case "NEXT", "":
		return flow.ActionNext, true
	case "CLARIFY":
		return flow.ActionClarify, true
	case "REPEAT":
		return flow.ActionRepeat, true
	case "CLOSING":
		return flow.ActionClosing, true
	}
	return flow.ActionNext, false
}

// parseResult pulls the JSON object out of the model output, which
// may be wrapped in markdown fences or surrounded by chatter.
func parseResult(out string) (rawResult, error) {
	var raw rawResult
	body := extractJSON(out)
	if body == "" {
		return raw, fmt.Errorf("extract: no JSON object in model output")
	}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return raw, fmt.Errorf("extract: bad JSON from model: %w", err)
	}
	return raw, nil
}

func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func nullToEmpty(s string) string {
	if s == "null" {
		return ""
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
