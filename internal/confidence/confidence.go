// Package confidence reduces a QuestionResponse's match payload to a
// single display score.
package confidence

import "github.com/suPer8Hu/faq-chat/internal/api"

// Best returns the strongest match score in the response, or false when no
// score applies. An llm-sourced answer is a generative fallback with no
// matched FAQ behind it, so it never yields a score even when the backend
// filled the top-level confidence field. Each match contributes its
// confidence field if numeric, else its similarity field if numeric; the
// result is the maximum across matched_faq and all_matches. A single strong
// match should not be diluted by weaker alternatives, hence max rather
// than any averaging.
func Best(resp *api.QuestionResponse) (float64, bool) {
	if resp == nil || resp.Source == api.SourceLLM {
		return 0, false
	}

	var (
		best  float64
		found bool
	)
	consider := func(v float64, ok bool) {
		if !ok {
			return
		}
		if !found || v > best {
			best = v
		}
		found = true
	}

	consider(resp.MatchedFAQ.Score())
	for i := range resp.AllMatches {
		consider(resp.AllMatches[i].Score())
	}
	return best, found
}
