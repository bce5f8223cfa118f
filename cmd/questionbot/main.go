// The question bot is a headless admin client. It connects to the game
// server, registers, claims admin rights, and serves question requests from
// a local word database.
package main

import (
	"context"
	"fmt"
	"html"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Androix777/kanjilab-server/internal/config"
	"github.com/Androix777/kanjilab-server/internal/wordstore"
	"github.com/Androix777/kanjilab-server/pkg/client"
	"github.com/Androix777/kanjilab-server/pkg/protocol"
)

const wordPickTimeout = 5 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, sugar); err != nil {
		sugar.Fatalw("bot stopped", "err", err)
	}
}

func run(ctx context.Context, cfg config.Bot, log *zap.SugaredLogger) error {
	store, err := wordstore.Open(cfg.WordDB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := store.Init(ctx); err != nil {
		return err
	}
	if n, err := store.Count(ctx, wordstore.Filter{}); err != nil {
		return err
	} else if n == 0 {
		log.Warnw("word database is empty, question requests will fail", "db", cfg.WordDB)
	}

	keys, err := client.LoadOrCreateKeyPair(cfg.KeysPath)
	if err != nil {
		return err
	}

	c, err := client.Dial(ctx, cfg.ServerURL, client.Options{
		Keys:       keys,
		OnQuestion: questionSource(store),
		Logger:     log,
	})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Register(ctx, cfg.Name); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	log.Infow("registered", "id", c.ID(), "name", cfg.Name)

	if cfg.AdminPassword != "" {
		if err := c.MakeAdmin(ctx, cfg.AdminPassword, c.ID()); err != nil {
			return fmt.Errorf("claim admin: %w", err)
		}
		log.Infow("claimed admin rights")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.Done():
			return client.ErrClosed
		case env, ok := <-c.Notifications():
			if !ok {
				return client.ErrClosed
			}
			log.Debugw("notification", "type", env.MessageType)
		}
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// questionSource adapts the word store to the client's question callback.
func questionSource(store *wordstore.Store) client.QuestionFunc {
	return func(settings protocol.GameSettings) (protocol.QuestionInfo, string, error) {
		ctx, cancel := context.WithTimeout(context.Background(), wordPickTimeout)
		defer cancel()

		word, err := store.RandomWord(ctx, wordstore.FilterFromSettings(settings))
		if err != nil {
			return protocol.QuestionInfo{}, "", err
		}
		font := "default"
		if settings.FirstFontName != nil && *settings.FirstFontName != "" {
			font = *settings.FirstFontName
		}
		question := protocol.QuestionInfo{
			WordInfo: word,
			FontName: font,
		}
		return question, renderSVG(word.Word, font), nil
	}
}

// renderSVG draws the word as plain text. Real font rendering happens in the
// GUI; this keeps headless rounds playable.
func renderSVG(word, font string) string {
	return fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="400" height="120">`+
			`<text x="50%%" y="50%%" dominant-baseline="middle" text-anchor="middle" `+
			`font-family="%s" font-size="64">%s</text></svg>`,
		html.EscapeString(font), html.EscapeString(word))
}
