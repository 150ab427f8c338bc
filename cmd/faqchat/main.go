package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/suPer8Hu/faq-chat/internal/api"
	"github.com/suPer8Hu/faq-chat/internal/chat"
	"github.com/suPer8Hu/faq-chat/internal/confidence"
	"github.com/suPer8Hu/faq-chat/internal/config"
	"github.com/suPer8Hu/faq-chat/internal/credential"
	"github.com/suPer8Hu/faq-chat/internal/db"
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

// consoleListener renders controller side effects to the terminal and
// optionally mirrors new turns to the audit queue.
type consoleListener struct {
	mu      sync.Mutex
	printed int

	sessionID string
	pub       *rabbitmq.Publisher

	resolved chan struct{}
	redirect chan struct{}
}

func newConsoleListener(sessionID string, pub *rabbitmq.Publisher) *consoleListener {
	return &consoleListener{
		sessionID: sessionID,
		pub:       pub,
		resolved:  make(chan struct{}, 1),
		redirect:  make(chan struct{}, 1),
	}
}

func (l *consoleListener) TranscriptChanged(turns []chat.Turn) {
	l.mu.Lock()
	fresh := turns[l.printed:]
	l.printed = len(turns)
	l.mu.Unlock()

	terminal := false
	for _, t := range fresh {
		switch t.Role {
		case chat.RoleUser:
			// the user already sees what they typed
		case chat.RoleAssistant:
			if t.MatchConfidence != nil {
				fmt.Printf("assistant (confidence %.2f): %s\n", *t.MatchConfidence, t.Content)
			} else {
				fmt.Printf("assistant: %s\n", t.Content)
			}
			terminal = true
		case chat.RoleSystem:
			fmt.Printf("* %s\n", t.Content)
			terminal = true
		}

		if l.pub != nil {
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

	if terminal {
		select {
		case l.resolved <- struct{}{}:
		default:
		}
	}
}

func (l *consoleListener) RedirectToEntry() {
	select {
	case l.redirect <- struct{}{}:
	default:
	}
}

func (l *consoleListener) ValidationFailed(reason string) {
	fmt.Printf("! %s\n", reason)
}

func promptKey(ctx context.Context, in *bufio.Scanner, gw *credential.Gateway) bool {
	for {
		fmt.Print("Enter API key: ")
		if !in.Scan() {
			return false
		}
		if err := gw.Set(ctx, in.Text()); err != nil {
			if err == credential.ErrEmpty {
				continue
			}
			log.Printf("store api key: %v", err)
			continue
		}
		return true
	}
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

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

	in := bufio.NewScanner(os.Stdin)

	// Each credential invalidation discards the session and starts a new
	// one with a fresh transcript.
	for {
		listener := newConsoleListener("", pub)
		ctrl := chat.NewController(client, gw, listener, opts)
		listener.sessionID = ctrl.SessionID()

		if err := ctrl.Start(); err != nil {
			<-listener.redirect
			if !promptKey(ctx, in, gw) {
				return
			}
			continue
		}

		if !runSession(ctx, in, ctrl, gw, client, opts, listener) {
			return
		}
		// session ended at the redirect boundary; loop back to entry
		ctrl.Close()
		if !promptKey(ctx, in, gw) {
			return
		}
	}
}

// runSession drives the REPL until the session hits the redirect boundary
// (false return means quit). Controller-emitted redirects are consumed
// before returning true; a rejected key on /search returns without one
// because the controller was never involved.
func runSession(ctx context.Context, in *bufio.Scanner, ctrl *chat.Controller, gw *credential.Gateway, client *api.Client, opts api.AskOptions, l *consoleListener) bool {
	for {
		fmt.Print("> ")
		if !in.Scan() {
			ctrl.Close()
			return false
		}
		line := strings.TrimSpace(in.Text())

		switch {
		case line == "":
			continue
		case line == "/quit":
			ctrl.Close()
			return false
		case line == "/retry":
			ctrl.Retry(ctx)
			<-l.redirect
			return true
		case line == "/health":
			if res, err := client.Health(ctx); err != nil {
				fmt.Printf("! backend probe failed: %v\n", err)
			} else {
				fmt.Printf("* backend %s, database %s\n", res.Status, res.Database)
			}
			continue
		case strings.HasPrefix(line, "/search"):
			query := strings.TrimSpace(strings.TrimPrefix(line, "/search"))
			if query == "" {
				fmt.Println("usage: /search <question>")
				continue
			}
			res, err := client.SearchFAQs(ctx, query, opts.GenerateVariants, opts.NumVariants)
			switch {
			case errors.Is(err, api.ErrAuth):
				// the client already dropped the key; restart at entry
				fmt.Println("! api key rejected; enter a new one to continue")
				return true
			case err != nil:
				fmt.Printf("! search failed: %v\n", err)
			default:
				printSearch(res)
			}
			continue
		case strings.HasPrefix(line, "/"):
			fmt.Println("commands: /search <question>  /health  /retry  /quit")
			continue
		}

		// drop a stale resolution signal from the previous round
		select {
		case <-l.resolved:
		default:
		}

		if err := ctrl.Submit(ctx, line); err != nil {
			continue // already reported through the listener or a no-op
		}

		<-l.resolved
		if _, ok := gw.Get(); !ok {
			// auth failure on this request; the redirect follows the
			// transcript update
			<-l.redirect
			return true
		}
	}
}

func printSearch(res *api.QuestionResponse) {
	if score, ok := confidence.Best(res); ok {
		fmt.Printf("search (confidence %.2f, source %s): %s\n", score, res.Source, res.Answer)
	} else {
		fmt.Printf("search (source %s): %s\n", res.Source, res.Answer)
	}
	for _, m := range res.AllMatches {
		if s, ok := m.Score(); ok {
			fmt.Printf("  - faq %d (%.2f): %s\n", m.FAQID, s, m.Question)
		} else {
			fmt.Printf("  - faq %d: %s\n", m.FAQID, m.Question)
		}
	}
}
