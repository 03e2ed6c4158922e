// Package config loads server settings from the environment and optional
// .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/DoyleJ11/husband-game/internal/engine"
	"github.com/DoyleJ11/husband-game/internal/game"
)

const (
	prefix      = "HUSBAND_"
	Development = "development"
	Production  = "production"
)

type Config struct {
	Env         string `env:"ENV"`
	Addr        string `env:"ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	Lang        string `env:"LANG" envDefault:"uk"`
	// Origins are host patterns allowed to open a websocket cross-origin.
	Origins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	MinParticipants  int `env:"MIN_PARTICIPANTS"`
	MaxParticipants  int `env:"MAX_PARTICIPANTS"`
	EliminationSkips int `env:"ELIMINATION_SKIPS"`

	RegistrationTimeout       time.Duration `env:"REGISTRATION_TIMEOUT"`
	MaxRegistrationTimeout    time.Duration `env:"MAX_REGISTRATION_TIMEOUT"`
	ExtendRegistrationTimeout time.Duration `env:"EXTEND_REGISTRATION_TIMEOUT"`
	RegistrationRemindTimeout time.Duration `env:"REGISTRATION_REMIND_TIMEOUT"`
	AcceptHusbandRoleTimeout  time.Duration `env:"ACCEPT_HUSBAND_ROLE_TIMEOUT"`
	QuestionTimeout           time.Duration `env:"QUESTION_TIMEOUT"`
	AnswersTimeout            time.Duration `env:"ANSWERS_TIMEOUT"`
	EliminationTimeout        time.Duration `env:"ELIMINATION_TIMEOUT"`
	AutoClearMessageTimeout   time.Duration `env:"AUTO_CLEAR_MESSAGE_TIMEOUT"`

	MaxAnswerLength         int `env:"MAX_ANSWER_LENGTH"`
	MaxQuestionLength       int `env:"MAX_QUESTION_LENGTH"`
	MaxHusbandMessageLength int `env:"MAX_HUSBAND_MESSAGE_LENGTH"`

	ShutdownGrace   time.Duration `env:"SHUTDOWN_GRACE"`
	KeepAliveTimers bool          `env:"KEEP_ALIVE_TIMERS"`
}

// Defaults returns the settings used for variables that are not set.
// Development shortens the game so it can be played through by hand.
func Defaults(envName string) Config {
	cfg := Config{
		Env:                       envName,
		MinParticipants:           4,
		MaxParticipants:           15,
		EliminationSkips:          1,
		RegistrationTimeout:       time.Minute,
		MaxRegistrationTimeout:    3 * time.Minute,
		ExtendRegistrationTimeout: 40 * time.Second,
		RegistrationRemindTimeout: 10 * time.Second,
		AcceptHusbandRoleTimeout:  40 * time.Second,
		QuestionTimeout:           15 * time.Minute,
		AnswersTimeout:            18 * time.Minute,
		EliminationTimeout:        12 * time.Minute,
		AutoClearMessageTimeout:   7 * time.Second,
		MaxAnswerLength:           420,
		MaxQuestionLength:         320,
		MaxHusbandMessageLength:   360,
		ShutdownGrace:             10 * time.Second,
	}
	if envName == Development {
		cfg.Origins = []string{"localhost:*", "127.0.0.1:*"}
		cfg.MinParticipants = 2
		cfg.RegistrationTimeout = 20 * time.Second
		cfg.ExtendRegistrationTimeout = 30 * time.Second
		cfg.AcceptHusbandRoleTimeout = 20 * time.Second
		cfg.QuestionTimeout = 30 * time.Second
		cfg.AnswersTimeout = 50 * time.Second
		cfg.EliminationTimeout = 20 * time.Second
	}
	return cfg
}

// Load reads .env.<env> and .env from the working directory, when present,
// then the process environment. Variables already set in the process win
// over the files.
func Load() (Config, error) {
	name := os.Getenv(prefix + "ENV")
	if name == "" {
		if vals, err := godotenv.Read(".env"); err == nil {
			name = vals[prefix+"ENV"]
		}
	}
	if name == "" {
		name = Production
	}

	for _, file := range []string{".env." + name, ".env"} {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := Defaults(name)
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsDevelopment() bool { return c.Env == Development }

// Validate reports every inconsistent setting at once.
func (c Config) Validate() error {
	var err error
	if c.MinParticipants < 2 {
		err = multierr.Append(err, fmt.Errorf("min participants %d is below 2", c.MinParticipants))
	}
	if c.MaxParticipants < c.MinParticipants {
		err = multierr.Append(err, fmt.Errorf("max participants %d is below min %d", c.MaxParticipants, c.MinParticipants))
	}
	if c.EliminationSkips < 0 {
		err = multierr.Append(err, fmt.Errorf("elimination skips %d is negative", c.EliminationSkips))
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"REGISTRATION_TIMEOUT", c.RegistrationTimeout},
		{"MAX_REGISTRATION_TIMEOUT", c.MaxRegistrationTimeout},
		{"EXTEND_REGISTRATION_TIMEOUT", c.ExtendRegistrationTimeout},
		{"REGISTRATION_REMIND_TIMEOUT", c.RegistrationRemindTimeout},
		{"ACCEPT_HUSBAND_ROLE_TIMEOUT", c.AcceptHusbandRoleTimeout},
		{"QUESTION_TIMEOUT", c.QuestionTimeout},
		{"ANSWERS_TIMEOUT", c.AnswersTimeout},
		{"ELIMINATION_TIMEOUT", c.EliminationTimeout},
		{"AUTO_CLEAR_MESSAGE_TIMEOUT", c.AutoClearMessageTimeout},
		{"SHUTDOWN_GRACE", c.ShutdownGrace},
	}
	for _, v := range durations {
		if v.d <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s%s must be positive", prefix, v.name))
		}
	}
	if c.RegistrationRemindTimeout >= c.RegistrationTimeout {
		err = multierr.Append(err, fmt.Errorf("registration reminder %s is not before the timeout %s",
			c.RegistrationRemindTimeout, c.RegistrationTimeout))
	}
	if c.RegistrationTimeout > c.MaxRegistrationTimeout {
		err = multierr.Append(err, fmt.Errorf("registration timeout %s exceeds the maximum %s",
			c.RegistrationTimeout, c.MaxRegistrationTimeout))
	}

	for name, n := range map[string]int{
		"MAX_ANSWER_LENGTH":          c.MaxAnswerLength,
		"MAX_QUESTION_LENGTH":        c.MaxQuestionLength,
		"MAX_HUSBAND_MESSAGE_LENGTH": c.MaxHusbandMessageLength,
	} {
		if n <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s%s must be positive", prefix, name))
		}
	}

	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) Engine() engine.Config {
	return engine.Config{
		MinParticipants:        c.MinParticipants,
		EliminationSkips:       c.EliminationSkips,
		MaxRegistrationTimeout: c.MaxRegistrationTimeout,
	}
}

func (c Config) Game() game.Config {
	return game.Config{
		MaxParticipants:         c.MaxParticipants,
		RegistrationTimeout:     c.RegistrationTimeout,
		RegistrationRemind:      c.RegistrationRemindTimeout,
		ExtendRegistration:      c.ExtendRegistrationTimeout,
		AcceptHusbandRole:       c.AcceptHusbandRoleTimeout,
		QuestionTimeout:         c.QuestionTimeout,
		AnswersTimeout:          c.AnswersTimeout,
		EliminationTimeout:      c.EliminationTimeout,
		AutoClearMessage:        c.AutoClearMessageTimeout,
		MaxQuestionLength:       c.MaxQuestionLength,
		MaxAnswerLength:         c.MaxAnswerLength,
		MaxHusbandMessageLength: c.MaxHusbandMessageLength,
	}
}
