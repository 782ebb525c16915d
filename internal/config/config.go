package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"whereabouts/internal/commontypes"
)

type Config struct {
	// Slack OAuth app
	SlackClientID     string `env:"SLACK_CLIENT_ID" validate:"required"`
	SlackClientSecret string `env:"SLACK_CLIENT_SECRET" validate:"required"`
	SlackRedirectURL  string `env:"SLACK_REDIRECT_URL" validate:"required,url"`
	Port              int    `env:"PORT" envDefault:"3000" validate:"min=1,max=65535"`

	// Check-in batch
	SlackToken       string             `env:"SLACK_TOKEN" validate:"required"`
	OpenAIAPIKey     string             `env:"OPENAI_API_KEY" validate:"required"`
	OpenAIBaseURL    string             `env:"OPENAI_BASE_URL" validate:"omitempty,url"`
	CheckinChannelID string             `env:"CHECKIN_CHANNEL_ID" validate:"required"`
	Roster           commontypes.Roster `env:"ROSTER" validate:"required,min=1,dive"`
	EntryLogFile     string             `env:"ENTRY_LOG_FILE" validate:"omitempty,file"`
	Query            string             `env:"OFFICE_QUERY" envDefault:"Hi, I'm looking for Hugo." validate:"required"`
	Timezone         string             `env:"TIMEZONE" validate:"omitempty,timezone"`

	// Shared
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"20s" validate:"min=1s,max=2m"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
}

var (
	serverFields = []string{"SlackClientID", "SlackClientSecret", "SlackRedirectURL", "Port", "HTTPTimeout", "LogLevel"}
	batchFields  = []string{"SlackToken", "OpenAIAPIKey", "OpenAIBaseURL", "CheckinChannelID", "Roster", "EntryLogFile", "Query", "Timezone", "HTTPTimeout", "LogLevel"}
)

var validate = validator.New()

// Load reads an optional .env file and parses the environment. A missing
// env file is not an error. Validation is left to ValidateServer and
// ValidateBatch so each command only demands what it uses.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	funcs := map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(commontypes.Roster{}): func(v string) (interface{}, error) {
			return commontypes.ParseRoster(v)
		},
	}
	if err := env.ParseWithFuncs(cfg, funcs); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}
	return cfg, nil
}

// ValidateServer checks the fields the OAuth callback server needs.
func (c *Config) ValidateServer() error {
	return c.validate(serverFields)
}

// ValidateBatch checks the fields the check-in batch needs.
func (c *Config) ValidateBatch() error {
	return c.validate(batchFields)
}

func (c *Config) validate(fields []string) error {
	err := validate.StructPartial(c, fields...)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s (%s)", envName(fe.StructField()), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
}

// envName maps a struct field back to its environment variable.
func envName(structField string) string {
	f, ok := reflect.TypeOf(Config{}).FieldByName(structField)
	if !ok {
		return structField
	}
	name, _, _ := strings.Cut(f.Tag.Get("env"), ",")
	return name
}

// Location returns the configured zone, or the process local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("error loading timezone %s: %w", c.Timezone, err)
	}
	return loc, nil
}

// Level parses LogLevel for zap.
func (c *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
