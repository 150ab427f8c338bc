package confidence

import (
	"testing"

	"github.com/suPer8Hu/faq-chat/internal/api"
)

func f(v float64) *float64 { return &v }

func TestBest_LLMSourceNeverScores(t *testing.T) {
	resp := &api.QuestionResponse{
		Source:     api.SourceLLM,
		Confidence: 0.99,
		MatchedFAQ: &api.Match{Confidence: f(0.8)},
		AllMatches: []api.Match{{Similarity: f(0.7)}},
	}
	if _, ok := Best(resp); ok {
		t.Fatalf("expected no score for llm-sourced answer")
	}
}

func TestBest_MaxAcrossEntries(t *testing.T) {
	// per entry confidence wins over similarity, but the max is taken
	// across entries
	resp := &api.QuestionResponse{
		Source:     api.SourceDatabase,
		MatchedFAQ: &api.Match{Confidence: f(0.6), Similarity: f(0.9)},
		AllMatches: []api.Match{{Similarity: f(0.95)}},
	}
	got, ok := Best(resp)
	if !ok {
		t.Fatalf("expected a score")
	}
	if got != 0.95 {
		t.Fatalf("expected 0.95, got %v", got)
	}
}

func TestBest_SimilarityFallback(t *testing.T) {
	resp := &api.QuestionResponse{
		Source:     api.SourceDatabase,
		MatchedFAQ: &api.Match{Similarity: f(0.4)},
	}
	got, ok := Best(resp)
	if !ok || got != 0.4 {
		t.Fatalf("expected 0.4, got %v ok=%v", got, ok)
	}
}

func TestBest_AbsentWhenNoCandidates(t *testing.T) {
	if _, ok := Best(&api.QuestionResponse{Source: api.SourceDatabase}); ok {
		t.Fatalf("expected no score for empty response")
	}
	if _, ok := Best(nil); ok {
		t.Fatalf("expected no score for nil response")
	}
	// matches without numeric fields contribute nothing
	resp := &api.QuestionResponse{
		Source:     api.SourceDatabase,
		MatchedFAQ: &api.Match{Question: "q"},
		AllMatches: []api.Match{{Answer: "a"}},
	}
	if _, ok := Best(resp); ok {
		t.Fatalf("expected no score when no match carries a number")
	}
}

func TestBest_PrefersConfidenceWithinEntry(t *testing.T) {
	resp := &api.QuestionResponse{
		Source:     api.SourceDatabase,
		MatchedFAQ: &api.Match{Confidence: f(0.6), Similarity: f(0.9)},
	}
	got, ok := Best(resp)
	if !ok || got != 0.6 {
		t.Fatalf("expected 0.6 (confidence preferred), got %v ok=%v", got, ok)
	}
}
