package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memberscout/internal/domain"
	"github.com/kailas-cloud/memberscout/internal/domain/query/filter"
)

// chatCompletion wraps raw assistant content into an OpenAI-compatible
// chat completion response body.
func chatCompletion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
}

func newTestExtractor(baseURL string) *IntentExtractor {
	return NewIntentExtractor(&IntentExtractorConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})
}

func TestIntentExtractor_Extract(t *testing.T) {
	content := `{
		"intent": "find_peers",
		"filters": {"graduation_year": 1998, "branch": "Mechanical", "city": null, "skills": null, "designation": null, "min_turnover": null, "name": null},
		"canonical_text": "mechanical peers from 1998",
		"confidence": 0.9
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(content))
	}))
	defer server.Close()

	x := newTestExtractor(server.URL)

	got, err := x.ExtractIntent(context.Background(), "1998 mech batchmates?", nil)
	if err != nil {
		t.Fatalf("ExtractIntent failed: %v", err)
	}

	if got.Intent != domain.IntentFindPeers {
		t.Errorf("Intent = %q, expected find_peers", got.Intent)
	}
	if got.Canonical != "mechanical peers from 1998" {
		t.Errorf("Canonical = %q", got.Canonical)
	}
	if got.Confidence != 0.9 {
		t.Errorf("Confidence = %v, expected 0.9", got.Confidence)
	}

	year, ok := got.Filters.Get(filter.KindYear)
	if !ok || year.Year() != 1998 {
		t.Errorf("expected year filter 1998, got %+v (ok=%v)", year, ok)
	}
	branch, ok := got.Filters.Get(filter.KindBranch)
	if !ok || branch.Value() != "Mechanical" {
		t.Errorf("expected branch filter Mechanical, got %+v (ok=%v)", branch, ok)
	}
}

func TestIntentExtractor_ToleratesCodeFence(t *testing.T) {
	content := "```json\n{\"intent\": \"find_business\", \"filters\": {}, \"canonical_text\": \"fabrication vendors\", \"confidence\": 0.8}\n```"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(content))
	}))
	defer server.Close()

	x := newTestExtractor(server.URL)

	got, err := x.ExtractIntent(context.Background(), "who does fabrication?", nil)
	if err != nil {
		t.Fatalf("ExtractIntent failed: %v", err)
	}
	if got.Intent != domain.IntentFindBusiness {
		t.Errorf("Intent = %q, expected find_business", got.Intent)
	}
}

func TestIntentExtractor_RetriesMalformedJSON(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			json.NewEncoder(w).Encode(chatCompletion("not json at all"))
			return
		}
		json.NewEncoder(w).Encode(chatCompletion(`{"intent": "find_specific_person", "filters": {"name": "Ramesh"}, "canonical_text": "ramesh", "confidence": 0.7}`))
	}))
	defer server.Close()

	x := newTestExtractor(server.URL)

	got, err := x.ExtractIntent(context.Background(), "find Ramesh", nil)
	if err != nil {
		t.Fatalf("ExtractIntent failed: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 completion calls, got %d", calls.Load())
	}
	if got.Intent != domain.IntentFindSpecificPerson {
		t.Errorf("Intent = %q", got.Intent)
	}
}

func TestIntentExtractor_MalformedExhaustsRetries(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion("still not json"))
	}))
	defer server.Close()

	x := newTestExtractor(server.URL)

	_, err := x.ExtractIntent(context.Background(), "anything", nil)
	if !errors.Is(err, domain.ErrExtractionProviderError) {
		t.Fatalf("expected ErrExtractionProviderError, got %v", err)
	}
	if calls.Load() != maxParseRetries {
		t.Errorf("expected %d completion calls, got %d", maxParseRetries, calls.Load())
	}
}

func TestIntentExtractor_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "overloaded", "type": "server_error"},
		})
	}))
	defer server.Close()

	x := newTestExtractor(server.URL)

	_, err := x.ExtractIntent(context.Background(), "anything", nil)
	if !errors.Is(err, domain.ErrExtractionProviderError) {
		t.Fatalf("expected ErrExtractionProviderError, got %v", err)
	}
}

func TestIntentExtractor_PassesRecentQueries(t *testing.T) {
	var gotUserPrompt string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		for _, m := range req.Messages {
			if m.Role == "user" {
				gotUserPrompt = m.Content
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"intent": "find_peers", "filters": {}, "canonical_text": "same city", "confidence": 0.6}`))
	}))
	defer server.Close()

	x := newTestExtractor(server.URL)

	_, err := x.ExtractIntent(context.Background(), "what about my city?",
		[]string{"mechanical engineers from 1998"})
	if err != nil {
		t.Fatalf("ExtractIntent failed: %v", err)
	}

	if !strings.Contains(gotUserPrompt, "Previous queries in this conversation:") {
		t.Errorf("user prompt missing context header: %q", gotUserPrompt)
	}
	if !strings.Contains(gotUserPrompt, "- mechanical engineers from 1998") {
		t.Errorf("user prompt missing prior query: %q", gotUserPrompt)
	}
	if !strings.Contains(gotUserPrompt, "Query: what about my city?") {
		t.Errorf("user prompt missing the current query: %q", gotUserPrompt)
	}
}

func TestToExtraction_DropsInvalidValues(t *testing.T) {
	var parsed llmResponse
	parsed.Intent = "made_up_intent"
	badYear := -5
	city := "Chennai"
	parsed.Filters.GraduationYear = &badYear
	parsed.Filters.City = &city
	parsed.CanonicalText = "  somewhere  "
	parsed.Confidence = 1.7

	got := toExtraction(parsed)

	if got.Intent != domain.IntentAmbiguous {
		t.Errorf("Intent = %q, expected ambiguous for unknown value", got.Intent)
	}
	if _, ok := got.Filters.Get(filter.KindYear); ok {
		t.Error("invalid year should have been dropped")
	}
	if c, ok := got.Filters.Get(filter.KindCity); !ok || c.Value() != "Chennai" {
		t.Errorf("expected city filter to survive, got %+v (ok=%v)", c, ok)
	}
	if got.Canonical != "somewhere" {
		t.Errorf("Canonical = %q, expected trimmed", got.Canonical)
	}
	if got.Confidence != 1 {
		t.Errorf("Confidence = %v, expected clamp to 1", got.Confidence)
	}
}

func TestToExtraction_ClampsNegativeConfidence(t *testing.T) {
	var parsed llmResponse
	parsed.Intent = "find_peers"
	parsed.Confidence = -0.3

	got := toExtraction(parsed)
	if got.Confidence != 0 {
		t.Errorf("Confidence = %v, expected clamp to 0", got.Confidence)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.in); got != tt.want {
				t.Errorf("stripCodeFence(%q) = %q, expected %q", tt.in, got, tt.want)
			}
		})
	}
}
