package api

import (
	"encoding/json"
	"time"
)

const (
	SourceDatabase = "database"
	SourceLLM      = "llm"
)

// Match is one candidate FAQ returned by the backend. The backend is not
// consistent about score naming: depending on the retrieval path a match
// carries "confidence", "similarity", or both, and the field is not
// guaranteed to be numeric. Score fields that fail to parse as numbers are
// dropped rather than read as zero.
type Match struct {
	FAQID       int64    `json:"faq_id"`
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	Source      string   `json:"source"`
	MatchedText string   `json:"matched_text"`
	Confidence  *float64 `json:"-"`
	Similarity  *float64 `json:"-"`
}

func (m *Match) UnmarshalJSON(data []byte) error {
	type alias struct {
		FAQID       int64           `json:"faq_id"`
		ID          int64           `json:"id"`
		Question    string          `json:"question"`
		Answer      string          `json:"answer"`
		Source      string          `json:"source"`
		MatchedText string          `json:"matched_text"`
		Confidence  json.RawMessage `json:"confidence"`
		Similarity  json.RawMessage `json:"similarity"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	m.FAQID = a.FAQID
	if m.FAQID == 0 {
		m.FAQID = a.ID
	}
	m.Question = a.Question
	m.Answer = a.Answer
	m.Source = a.Source
	m.MatchedText = a.MatchedText
	m.Confidence = numericField(a.Confidence)
	m.Similarity = numericField(a.Similarity)
	return nil
}

func numericField(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

// Score returns the match's relevance value, preferring confidence over
// similarity when both are present.
func (m *Match) Score() (float64, bool) {
	if m == nil {
		return 0, false
	}
	if m.Confidence != nil {
		return *m.Confidence, true
	}
	if m.Similarity != nil {
		return *m.Similarity, true
	}
	return 0, false
}

type QuestionResponse struct {
	Answer            string   `json:"answer"`
	Source            string   `json:"source"`
	Confidence        float64  `json:"confidence"`
	MatchedFAQ        *Match   `json:"matched_faq"`
	AllMatches        []Match  `json:"all_matches"`
	GeneratedVariants []string `json:"generated_variants"`
	ProcessingTimeMS  float64  `json:"processing_time_ms"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}
