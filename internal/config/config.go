package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMarkStart   = "<!-- Calendar start -->"
	DefaultMarkEnd     = "<!-- Calendar end -->"
	DefaultPlaceholder = "Zatím žádné akce"
	DefaultTimeout     = 3 * time.Second
	DefaultTimezone    = "UTC"
	DefaultHorizonDays = 365

	// EnvCalendarURL supplies the calendar URL when no flag or file sets it.
	EnvCalendarURL = "CALENDAR_URL"

	ParserArran4   = "arran4"
	ParserEmersion = "emersion"
)

// ErrConfig marks configuration problems: missing URL, bad values, or an
// unreadable config file.
var ErrConfig = errors.New("config error")

// Config is the effective run configuration.
type Config struct {
	// ICSURL is the calendar subscription endpoint (http or https).
	ICSURL string `yaml:"ics_url"`

	// MarkStart and MarkEnd delimit the region of the target file that is
	// replaced by the rendered table.
	MarkStart string `yaml:"mark_start"`
	MarkEnd   string `yaml:"mark_end"`

	// Timeout bounds the single HTTP fetch.
	Timeout time.Duration `yaml:"timeout"`

	// Timezone is the IANA zone that defines "today" and the date of
	// DATE-TIME starts.
	Timezone string `yaml:"timezone"`

	// FutureOnly drops events dated before today.
	FutureOnly *bool `yaml:"future_only"`

	// Parser selects the iCalendar backend: "arran4" or "emersion".
	Parser string `yaml:"parser"`

	// Placeholder is the single row shown when no events remain.
	Placeholder string `yaml:"placeholder"`

	// ExpandRecurrences turns RRULE events into one event per occurrence
	// up to HorizonDays after today.
	ExpandRecurrences bool `yaml:"expand_recurrences"`
	HorizonDays       int  `yaml:"horizon_days"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	futureOnly := true
	return &Config{
		MarkStart:   DefaultMarkStart,
		MarkEnd:     DefaultMarkEnd,
		Timeout:     DefaultTimeout,
		Timezone:    DefaultTimezone,
		FutureOnly:  &futureOnly,
		Parser:      ParserArran4,
		Placeholder: DefaultPlaceholder,
		HorizonDays: DefaultHorizonDays,
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled files still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.MarkStart == "" {
		c.MarkStart = def.MarkStart
	}
	if c.MarkEnd == "" {
		c.MarkEnd = def.MarkEnd
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.FutureOnly == nil {
		c.FutureOnly = def.FutureOnly
	}
	if c.Parser == "" {
		c.Parser = def.Parser
	}
	if c.Placeholder == "" {
		c.Placeholder = def.Placeholder
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = def.HorizonDays
	}
}

// IsFutureOnly reports the effective future-only policy.
func (c *Config) IsFutureOnly() bool {
	return c.FutureOnly == nil || *c.FutureOnly
}

// SetFutureOnly overrides the future-only policy.
func (c *Config) SetFutureOnly(v bool) {
	c.FutureOnly = &v
}

// Load reads configuration from the given YAML path.
//
// An empty path yields the defaults. Unlike a long-running service there
// is no first-run file creation: a path that was asked for but does not
// exist is an ErrConfig.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: config file %s does not exist", ErrConfig, path)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrConfig, path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrConfig, path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// ApplyEnv loads dotenvFile (if it exists) into the process environment
// and then takes ICSURL from CALENDAR_URL when it is still unset.
// Variables already present in the environment win over the file.
func (c *Config) ApplyEnv(dotenvFile string) error {
	if dotenvFile != "" {
		if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: load %s: %v", ErrConfig, dotenvFile, err)
		}
	}
	if c.ICSURL == "" {
		c.ICSURL = os.Getenv(EnvCalendarURL)
	}
	return nil
}

// Validate checks the values that Normalize cannot default.
func (c *Config) Validate() error {
	if c.ICSURL == "" {
		return fmt.Errorf("%w: no calendar URL; pass --ics_url or set %s", ErrConfig, EnvCalendarURL)
	}
	switch c.Parser {
	case ParserArran4, ParserEmersion:
	default:
		return fmt.Errorf("%w: unknown parser %q", ErrConfig, c.Parser)
	}
	if c.MarkStart == c.MarkEnd {
		return fmt.Errorf("%w: start and end markers must differ", ErrConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone. An empty zone means UTC so that "today" is
// the same on every CI runner.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrConfig, c.Timezone, err)
	}
	return loc, nil
}
