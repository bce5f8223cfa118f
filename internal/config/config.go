// Package config loads runtime tunables from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server holds the server binary's configuration.
type Server struct {
	Addr            string        `env:"KANJILAB_ADDR" envDefault:":8765"`
	AutoAdmin       bool          `env:"KANJILAB_AUTO_ADMIN" envDefault:"false"`
	LogLevel        string        `env:"KANJILAB_LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"KANJILAB_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Bot holds the question bot's configuration.
type Bot struct {
	ServerURL string `env:"KANJILAB_SERVER_URL" envDefault:"ws://127.0.0.1:8765/ws"`
	Name      string `env:"KANJILAB_BOT_NAME" envDefault:"questionbot"`
	WordDB    string `env:"KANJILAB_WORD_DB" envDefault:"words.db"`
	KeysPath  string `env:"KANJILAB_KEYS_PATH" envDefault:"keys.json"`
	LogLevel  string `env:"KANJILAB_LOG_LEVEL" envDefault:"info"`
	// AdminPassword lets the bot claim admin on servers not running in
	// auto-admin mode. Empty means rely on auto promotion.
	AdminPassword string `env:"KANJILAB_ADMIN_PASSWORD"`
}

func LoadServer() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func LoadBot() (Bot, error) {
	var cfg Bot
	if err := env.Parse(&cfg); err != nil {
		return Bot{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
