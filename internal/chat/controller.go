package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/suPer8Hu/faq-chat/internal/api"
	"github.com/suPer8Hu/faq-chat/internal/common"
	"github.com/suPer8Hu/faq-chat/internal/confidence"
	"github.com/suPer8Hu/faq-chat/internal/credential"
)

type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// backend rejects questions longer than this; checked locally so the input
// never reaches the network
const maxQuestionRunes = 500

var (
	ErrNoCredential    = errors.New("chat: no active credential")
	ErrEmptyQuestion   = errors.New("chat: question is empty")
	ErrQuestionTooLong = errors.New("chat: question is too long")
	ErrBusy            = errors.New("chat: a request is already in flight")
	ErrClosed          = errors.New("chat: session is closed")
)

// Asker is the slice of the API client the controller uses.
type Asker interface {
	AskQuestion(ctx context.Context, question string, opts api.AskOptions) (*api.QuestionResponse, error)
}

// Listener receives the controller's side effects. Implementations render;
// the controller never touches presentation itself.
type Listener interface {
	// TranscriptChanged is called with a snapshot after every append.
	TranscriptChanged(turns []Turn)
	// RedirectToEntry asks the host to return to credential entry.
	RedirectToEntry()
	// ValidationFailed reports a local input rejection; nothing was
	// appended and no request was made.
	ValidationFailed(reason string)
}

// Controller owns one session's transcript and drives the submit
// lifecycle: Idle -> Submitting -> resolved back to Idle. It is the sole
// mutator of the transcript; request results re-enter through finish under
// the same lock, so turns land in event-arrival order. Exactly one request
// may be outstanding.
type Controller struct {
	client   Asker
	creds    *credential.Gateway
	listener Listener
	opts     api.AskOptions

	// dispatch runs the network call off the caller's goroutine. Tests
	// substitute a synchronous version.
	dispatch func(fn func())

	sessionID string

	mu      sync.Mutex
	state   State
	turns   []Turn
	pending string // correlation token of the in-flight request
}

func NewController(client Asker, creds *credential.Gateway, listener Listener, opts api.AskOptions) *Controller {
	sid, _ := common.NewULID()
	return &Controller{
		client:    client,
		creds:     creds,
		listener:  listener,
		opts:      opts,
		dispatch:  func(fn func()) { go fn() },
		sessionID: sid,
	}
}

func (c *Controller) SessionID() string { return c.sessionID }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns a copy of the turns appended so far.
func (c *Controller) Transcript() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Turn(nil), c.turns...)
}

// Start gates session entry on an active credential. Without one it emits
// a redirect and the session never opens; with one it seeds the transcript
// with a readiness system turn.
func (c *Controller) Start() error {
	if _, ok := c.creds.Get(); !ok {
		c.emitRedirect()
		return ErrNoCredential
	}

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return ErrClosed
	}
	snapshot := c.appendLocked(Turn{
		Role:    RoleSystem,
		Content: "FAQ assistant ready. Ask a question to get started.",
	})
	c.mu.Unlock()

	c.emitTranscript(snapshot)
	return nil
}

// Submit validates the question and issues the request. Control returns
// immediately; the result re-enters as a later event. A submit while a
// request is in flight is rejected without touching the transcript.
func (c *Controller) Submit(ctx context.Context, question string) error {
	q := strings.TrimSpace(question)
	if q == "" {
		c.emitValidation("question is empty")
		return ErrEmptyQuestion
	}
	if utf8.RuneCountInString(q) > maxQuestionRunes {
		c.emitValidation(fmt.Sprintf("question exceeds %d characters", maxQuestionRunes))
		return ErrQuestionTooLong
	}

	// A session is only usable while a credential is active. After an auth
	// failure the credential is gone and the user must re-enter one before
	// anything else is accepted.
	if _, ok := c.creds.Get(); !ok {
		c.emitRedirect()
		return ErrNoCredential
	}

	c.mu.Lock()
	switch c.state {
	case StateClosed:
		c.mu.Unlock()
		return ErrClosed
	case StateSubmitting:
		c.mu.Unlock()
		return ErrBusy
	}

	token := uuid.NewString()
	c.pending = token
	c.state = StateSubmitting
	snapshot := c.appendLocked(Turn{Role: RoleUser, Content: q})
	c.mu.Unlock()

	c.emitTranscript(snapshot)

	c.dispatch(func() {
		resp, err := c.client.AskQuestion(ctx, q, c.opts)
		c.finish(token, q, resp, err)
	})
	return nil
}

// Retry is the stuck-session escape hatch: drop the credential and send
// the user back to entry, whatever state the session is in.
func (c *Controller) Retry(ctx context.Context) {
	if err := c.creds.Clear(ctx); err != nil {
		log.Printf("[chat] clear credential on retry failed: %v", err)
	}
	c.emitRedirect()
}

// Close tears the session down. Results of a still-in-flight request are
// discarded when they arrive; the request itself is not cancelled.
func (c *Controller) Close() {
	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
}

// finish is the response/failure arrival event. Every path through it ends
// in Idle; there is no fatal outcome.
func (c *Controller) finish(token string, question string, resp *api.QuestionResponse, err error) {
	c.mu.Lock()
	if c.state == StateClosed || c.pending != token {
		// the session was torn down, or this result is stale
		c.mu.Unlock()
		return
	}
	c.pending = ""

	var redirect bool
	switch {
	case err == nil:
		turn := Turn{Role: RoleAssistant, Content: resp.Answer, Raw: resp}
		if score, ok := confidence.Best(resp); ok {
			turn.MatchConfidence = &score
		}
		c.appendLocked(turn)

	case errors.Is(err, api.ErrAuth):
		// the client already cleared the credential
		c.appendLocked(Turn{
			Role:    RoleSystem,
			Content: "Your session has expired. Enter a new API key to continue.",
		})
		redirect = true

	default:
		c.appendLocked(Turn{
			Role:    RoleSystem,
			Content: fmt.Sprintf("Could not answer %q: %s", question, describeFailure(err)),
		})
	}

	c.state = StateIdle
	snapshot := append([]Turn(nil), c.turns...)
	c.mu.Unlock()

	c.emitTranscript(snapshot)
	if redirect {
		c.emitRedirect()
	}
}

// appendLocked stamps and appends a turn and returns a snapshot. Caller
// holds c.mu.
func (c *Controller) appendLocked(t Turn) []Turn {
	id, _ := common.NewULID()
	t.ID = id
	t.CreatedAt = time.Now()
	c.turns = append(c.turns, t)
	return append([]Turn(nil), c.turns...)
}

func describeFailure(err error) string {
	switch {
	case errors.Is(err, api.ErrValidation):
		return fmt.Sprintf("the backend rejected the request (%v)", err)
	case errors.Is(err, api.ErrServer):
		return fmt.Sprintf("the backend failed to process it (%v)", err)
	case errors.Is(err, api.ErrNetwork):
		return fmt.Sprintf("the backend could not be reached (%v)", err)
	default:
		return err.Error()
	}
}

func (c *Controller) emitTranscript(turns []Turn) {
	if c.listener != nil {
		c.listener.TranscriptChanged(turns)
	}
}

func (c *Controller) emitRedirect() {
	if c.listener != nil {
		c.listener.RedirectToEntry()
	}
}

func (c *Controller) emitValidation(reason string) {
	if c.listener != nil {
		c.listener.ValidationFailed(reason)
	}
}
