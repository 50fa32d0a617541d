// Package config loads the lobby configuration from YAML, a .env file and
// environment overrides.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"lobby/internal/game/connect"
	"lobby/internal/game/rummy"
	"lobby/internal/game/secretcode"
	"lobby/internal/game/war"
)

//go:embed default.yaml
var defaultYAML []byte

// LocalFile is read from the working directory when no path is given.
const LocalFile = "lobby.yaml"

type Config struct {
	Server   Server   `yaml:"server"`
	Storage  Storage  `yaml:"storage"`
	Log      Log      `yaml:"log"`
	Sessions Sessions `yaml:"sessions"`
	Games    Games    `yaml:"games"`
}

type Server struct {
	Addr string `yaml:"addr"`
	// ReadHeaderTimeout is the only connection deadline; websocket
	// connections outlive read and write deadlines.
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	// RequestTimeout bounds REST handlers.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type Storage struct {
	Path string `yaml:"path"`
}

type Log struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type Sessions struct {
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	MaxAge          time.Duration `yaml:"max_age"`
	// AIStepLimit bounds the AI moves run after a single human move.
	AIStepLimit int `yaml:"ai_step_limit"`
}

// Games holds the options of the configurable game types.
type Games struct {
	Connect    connect.Options    `yaml:"connect"`
	SecretCode secretcode.Options `yaml:"secret_code"`
	War        war.Options        `yaml:"war"`
	Rummy      rummy.Options      `yaml:"rummy"`
}

// Default returns the embedded configuration.
func Default() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load reads the configuration. Search order: path, then ./lobby.yaml,
// then the embedded defaults. Values from a file are laid over the
// defaults; a .env file and the PORT, DB_PATH and LOG_LEVEL variables
// are applied last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if data, err := os.ReadFile(LocalFile); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", LocalFile, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("read config %s: %w", LocalFile, err)
	}

	_ = godotenv.Load()
	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if p := getenv("PORT"); p != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(p, ":")
	}
	if p := getenv("DB_PATH"); p != "" {
		c.Storage.Path = p
	}
	if l := getenv("LOG_LEVEL"); l != "" {
		c.Log.Level = l
	}
}

// Logger builds a zerolog logger writing to w at the configured level.
// Unknown levels fall back to info.
func (l Log) Logger(w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil || l.Level == "" {
		lvl = zerolog.InfoLevel
	}
	if l.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
