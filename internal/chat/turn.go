package chat

import (
	"time"

	"github.com/suPer8Hu/faq-chat/internal/api"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one entry of the session transcript. Turns are immutable once
// appended.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// MatchConfidence is the aggregated score for assistant turns; nil when
	// no match score applies (llm answers, or no numeric candidates).
	MatchConfidence *float64 `json:"match_confidence,omitempty"`

	// Raw carries the backend payload the assistant turn was built from.
	Raw *api.QuestionResponse `json:"raw,omitempty"`
}
