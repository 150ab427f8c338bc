package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/suPer8Hu/faq-chat/internal/api"
	"github.com/suPer8Hu/faq-chat/internal/chat"
	"github.com/suPer8Hu/faq-chat/internal/config"
	"github.com/suPer8Hu/faq-chat/internal/credential"
	"github.com/suPer8Hu/faq-chat/internal/db"
	"github.com/suPer8Hu/faq-chat/internal/httpapi"
	"github.com/suPer8Hu/faq-chat/internal/httpapi/handlers"
	"github.com/suPer8Hu/faq-chat/internal/store/gormstore"
	"github.com/suPer8Hu/faq-chat/internal/store/rabbitmq"
	"github.com/suPer8Hu/faq-chat/internal/store/redisstore"
)

func openStore(cfg config.Config) credential.Store {
	switch cfg.CredentialBackend {
	case "redis":
		return redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "sqlite", "mysql":
		store, err := gormstore.New(db.Connect(cfg.DBDSN))
		if err != nil {
			log.Fatalf("credential store: %v", err)
		}
		return store
	default:
		log.Fatalf("unsupported CREDENTIAL_BACKEND=%q", cfg.CredentialBackend)
		return nil
	}
}

// daemonListener logs side effects and mirrors new turns to the audit
// queue. Rendering is the HTTP caller's concern; they poll the transcript.
type daemonListener struct {
	sessionID string
	pub       *rabbitmq.Publisher

	mu   sync.Mutex
	seen int
}

func (l *daemonListener) TranscriptChanged(turns []chat.Turn) {
	l.mu.Lock()
	fresh := turns[l.seen:]
	l.seen = len(turns)
	l.mu.Unlock()

	for _, t := range fresh {
		log.Printf("[session] turn appended role=%s id=%s", t.Role, t.ID)
		if l.pub == nil {
			continue
		}
		ev := rabbitmq.TurnEvent{
			SessionID:       l.sessionID,
			TurnID:          t.ID,
			Role:            string(t.Role),
			Content:         t.Content,
			MatchConfidence: t.MatchConfidence,
			CreatedAt:       t.CreatedAt,
		}
		if err := l.pub.PublishTurn(context.Background(), ev); err != nil {
			log.Printf("[audit] publish turn failed: %v", err)
		}
	}
}

func (l *daemonListener) RedirectToEntry() {
	log.Printf("[session] credential required; PUT /credential to continue")
}

func (l *daemonListener) ValidationFailed(reason string) {
	log.Printf("[session] input rejected: %s", reason)
}

// sessionHolder points the HTTP handlers at the current controller and
// lets openSession swap it atomically.
type sessionHolder struct {
	mu   sync.RWMutex
	ctrl *chat.Controller
}

func (h *sessionHolder) current() *chat.Controller {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ctrl
}

func (h *sessionHolder) swap(c *chat.Controller) *chat.Controller {
	h.mu.Lock()
	old := h.ctrl
	h.ctrl = c
	h.mu.Unlock()
	return old
}

func (h *sessionHolder) SessionID() string { return h.current().SessionID() }

func (h *sessionHolder) State() chat.State { return h.current().State() }

func (h *sessionHolder) Transcript() []chat.Turn { return h.current().Transcript() }

func (h *sessionHolder) Submit(ctx context.Context, question string) error {
	return h.current().Submit(ctx, question)
}

func (h *sessionHolder) Retry(ctx context.Context) { h.current().Retry(ctx) }

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openStore(cfg)
	gw, err := credential.NewGateway(ctx, store)
	if err != nil {
		log.Fatalf("load credential: %v", err)
	}
	if _, ok := gw.Get(); !ok && cfg.APIKey != "" {
		if err := gw.Set(ctx, cfg.APIKey); err != nil {
			log.Fatalf("seed credential: %v", err)
		}
	}

	client := api.NewClient(cfg.APIBaseURL, gw, cfg.APITimeout)
	opts := api.AskOptions{GenerateVariants: cfg.GenerateVariants, NumVariants: cfg.NumVariants}

	var pub *rabbitmq.Publisher
	if cfg.RabbitURL != "" {
		pub, err = rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Printf("[audit] disabled, rabbit dial: %v", err)
			pub = nil
		} else {
			defer pub.Close()
		}
	}

	holder := &sessionHolder{}
	openSession := func() {
		listener := &daemonListener{pub: pub}
		ctrl := chat.NewController(client, gw, listener, opts)
		listener.sessionID = ctrl.SessionID()
		// a daemon can come up before the key is stored; the session opens
		// once PUT /credential lands
		if err := ctrl.Start(); err != nil {
			log.Printf("[session] not started: %v", err)
		}
		if old := holder.swap(ctrl); old != nil {
			old.Close()
		}
	}
	openSession()
	defer func() {
		if c := holder.current(); c != nil {
			c.Close()
		}
	}()

	// A transcript is scoped to one credential's session: storing a new
	// key discards the old session and opens a fresh one. Clearing is left
	// alone so an auth failure can still append its expiry turn.
	gw.Subscribe(func(_ string, present bool) {
		if present {
			openSession()
		}
	})

	h := handlers.NewHandler(holder, gw, client)
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.NewRouter(h),
	}

	go func() {
		log.Printf("faqchatd listening on %s (backend %s)", cfg.HTTPAddr, cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
