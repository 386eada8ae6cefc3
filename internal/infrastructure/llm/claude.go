// Package llm implements the extraction contract against the Anthropic
// messages API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reviewpulse/internal/config"
	"reviewpulse/internal/ports"
)

const anthropicVersion = "2023-06-01"

// ClaudeClient implements ports.ExtractionService backed by the
// Anthropic messages API.
type ClaudeClient struct {
	endpoint   string
	model      string
	apiKey     string
	maxTokens  int
	httpClient *http.Client
}

var _ ports.ExtractionService = (*ClaudeClient)(nil)

// NewClaudeClient builds a client from configuration.
func NewClaudeClient(cfg config.ClaudeConfig) *ClaudeClient {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 20000
	}
	return &ClaudeClient{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		maxTokens:  maxTokens,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Extract posts the extraction prompt and returns the raw structured
// payload plus token usage. Usage is reported even when the reply later
// fails schema validation upstream.
func (c *ClaudeClient) Extract(ctx context.Context, req ports.ExtractionRequest) (ports.ExtractionResult, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return ports.ExtractionResult{}, fmt.Errorf("claude client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":       c.model,
		"max_tokens":  c.maxTokens,
		"temperature": 0.1,
		"messages": []map[string]string{
			{"role": "user", "content": buildPrompt(req)},
		},
	})
	if err != nil {
		return ports.ExtractionResult{}, fmt.Errorf("marshal claude payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return ports.ExtractionResult{}, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ports.ExtractionResult{}, fmt.Errorf("extract: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return ports.ExtractionResult{}, fmt.Errorf("claude error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var reply struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return ports.ExtractionResult{}, fmt.Errorf("decode claude response: %w", err)
	}

	result := ports.ExtractionResult{
		InputTokens:  reply.Usage.InputTokens,
		OutputTokens: reply.Usage.OutputTokens,
	}
	if len(reply.Content) == 0 {
		return result, fmt.Errorf("claude response has no content blocks")
	}
	result.Payload = []byte(reply.Content[0].Text)
	return result, nil
}

func buildPrompt(req ports.ExtractionRequest) string {
	rating := "unknown"
	if req.Rating != nil {
		rating = fmt.Sprintf("%.1f", *req.Rating)
	}
	date := req.ReviewDate
	if date == "" {
		date = "unknown"
	}

	var b strings.Builder
	b.WriteString("You are an expert restaurant review analyst. Extract comprehensive insights from this review using the exact JSON schema provided.\n\n")
	b.WriteString("REVIEW DATA:\n")
	fmt.Fprintf(&b, "Text: %q\n", req.Text)
	fmt.Fprintf(&b, "Rating: %s/5\n", rating)
	fmt.Fprintf(&b, "Source: %s\n", req.Source)
	fmt.Fprintf(&b, "Date: %s\n\n", date)
	b.WriteString("Extract the following information and return ONLY valid JSON matching this exact schema:\n\n")
	b.WriteString(`{
    "overall_sentiment": "positive/negative/mixed/neutral",
    "rating_breakdown": {
        "food": 1-5 or null,
        "service": 1-5 or null,
        "ambiance": 1-5 or null,
        "value": 1-5 or null
    },
    "mentioned_items": [
        {
            "name": "dish/drink name",
            "sentiment": "positive/negative/mixed",
            "aspects": ["taste", "portion", "presentation", "temperature", "price"]
        }
    ],
    "staff_mentions": [
        {
            "role": "server/host/manager/bartender/chef",
            "name": "if mentioned",
            "sentiment": "positive/negative",
            "specific_feedback": "brief note"
        }
    ],
    "operational_insights": {
        "wait_time": "none/short/reasonable/long/excessive",
        "reservation_experience": "positive/negative/not_mentioned",
        "cleanliness": "positive/negative/not_mentioned",
        "noise_level": "quiet/moderate/loud/not_mentioned",
        "crowding": "empty/comfortable/busy/overcrowded/not_mentioned"
    },
    "visit_context": {
        "party_type": "solo/couple/family/business/friends/large_group",
        "occasion": "regular/date/business/celebration/tourist",
        "time_of_visit": "breakfast/lunch/dinner/late_night/unknown",
        "first_visit": true/false/null,
        "would_return": true/false/null,
        "would_recommend": true/false/null
    },
    "key_phrases": {
        "positive_highlights": ["extracting 2-3 quotable phrases"],
        "negative_issues": ["extracting 2-3 main complaints"],
        "suggestions": ["extracting any improvement suggestions"]
    },
    "anomaly_flags": {
        "potential_fake": true/false,
        "health_safety_concern": true/false,
        "extreme_emotion": true/false,
        "competitor_mention": true/false
    }
}`)
	b.WriteString("\n\nIMPORTANT:\n")
	b.WriteString("- Return ONLY the JSON object, no additional text\n")
	b.WriteString("- Use null for missing/unknown values\n")
	b.WriteString("- Be precise with sentiment classification\n")
	b.WriteString("- Extract specific dish names and staff roles when mentioned\n")
	b.WriteString("- Flag potential fake reviews or safety concerns\n")
	b.WriteString("- If no information is available for a category, use appropriate null/unknown values\n")
	return b.String()
}
