package elog

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"gopkg.in/yaml.v3"
)

// Verbosity controls how many auxiliary lines accompany a server log
// entry.
type Verbosity int

const (
	VerbosityTerse Verbosity = iota
	VerbosityDefault
	VerbosityVerbose
)

func (v Verbosity) String() string {
	switch v {
	case VerbosityTerse:
		return "terse"
	case VerbosityVerbose:
		return "verbose"
	default:
		return "default"
	}
}

func (v Verbosity) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *Verbosity) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "terse":
		*v = VerbosityTerse
	case "default", "":
		*v = VerbosityDefault
	case "verbose":
		*v = VerbosityVerbose
	default:
		return fmt.Errorf("elog: unknown error verbosity %q", text)
	}
	return nil
}

// Destination is a bitmask of server log outputs.
type Destination uint8

const (
	DestStderr Destination = 1 << iota
	DestCSVLog
	DestSyslog
	DestEventLog
)

var destinationNames = []struct {
	name string
	dest Destination
}{
	{"stderr", DestStderr},
	{"csvlog", DestCSVLog},
	{"syslog", DestSyslog},
	{"eventlog", DestEventLog},
}

// String renders the mask the way log_destination is written, as a
// comma separated list.
func (d Destination) String() string {
	var names []string
	for _, n := range destinationNames {
		if d&n.dest != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ",")
}

func (d Destination) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Destination) UnmarshalText(text []byte) error {
	var out Destination
	for _, part := range strings.Split(string(text), ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		found := false
		for _, n := range destinationNames {
			if n.name == part {
				out |= n.dest
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("elog: unknown log destination %q", part)
		}
	}
	*d = out
	return nil
}

// FileConfig describes a rotated server log file.
type FileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days"`
	MaxBackups int    `yaml:"max_backups"`
	LocalTime  bool   `yaml:"local_time"`
	Compress   bool   `yaml:"compress"`
}

// Config holds the thresholds and formats read by the error core. It is
// shared between execution contexts and treated as read-only once
// loaded; reload by swapping in a new Config.
type Config struct {
	LogMinMessages       Severity    `yaml:"log_min_messages"`
	ClientMinMessages    Severity    `yaml:"client_min_messages"`
	LogMinErrorStatement Severity    `yaml:"log_min_error_statement"`
	BacktraceMinMessages Severity    `yaml:"backtrace_min_messages"`
	ErrorVerbosity       Verbosity   `yaml:"error_verbosity"`
	Destination          Destination `yaml:"log_destination"`
	LinePrefix           string      `yaml:"log_line_prefix"`

	// PasswordMinLength is the width of the mask written over secrets
	// found in SQL text.
	PasswordMinLength int `yaml:"password_min_length"`

	SyslogIdent    string `yaml:"syslog_ident"`
	SyslogFacility string `yaml:"syslog_facility"`
	LogTimezone    string `yaml:"log_timezone"`
	NodeName       string `yaml:"node_name"`

	// ExitOnAnyError turns every ERROR into a PANIC (FATAL for
	// shutdown-critical workers).
	ExitOnAnyError bool `yaml:"exit_on_any_error"`

	// Standalone is set for a single-user backend without a
	// supervisor. Thresholds are then compared numerically.
	Standalone bool `yaml:"standalone"`

	// StmtRetry enables transparent statement retry: retryable errors
	// and interim notices are withheld from the client.
	StmtRetry  bool     `yaml:"stmt_retry"`
	RetryCodes []string `yaml:"retry_codes"`

	// Modules lists module names whose debug messages are logged.
	Modules []string `yaml:"modules"`

	LogFile *FileConfig `yaml:"log_file"`

	location *time.Location
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() *Config {
	return &Config{
		LogMinMessages:       Warning,
		ClientMinMessages:    Notice,
		LogMinErrorStatement: Error,
		BacktraceMinMessages: Panic,
		ErrorVerbosity:       VerbosityDefault,
		Destination:          DestStderr,
		PasswordMinLength:    8,
		SyslogIdent:          "postgres",
		SyslogFacility:       "local0",
		LogTimezone:          "UTC",
		location:             time.UTC,
		RetryCodes: []string{
			pgerrcode.SerializationFailure,
			pgerrcode.DeadlockDetected,
			pgerrcode.ConnectionFailure,
		},
	}
}

// LoadConfig decodes YAML from r on top of DefaultConfig.
func LoadConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("elog: decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and resolves the log time zone. It
// must be called before the Config is shared between contexts.
func (c *Config) Validate() error {
	if c.PasswordMinLength <= 0 {
		return fmt.Errorf("elog: password_min_length must be positive, got %d", c.PasswordMinLength)
	}
	c.location = nil
	loc, err := c.timezone()
	if err != nil {
		return fmt.Errorf("elog: log_timezone: %w", err)
	}
	c.location = loc
	for _, code := range c.RetryCodes {
		if !validCode(code) {
			return fmt.Errorf("elog: retry_codes: invalid SQLSTATE %q", code)
		}
	}
	return nil
}

func (c *Config) timezone() (*time.Location, error) {
	if c.location != nil {
		return c.location, nil
	}
	if c.LogTimezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.LogTimezone)
}

// loc returns the log time zone, falling back to UTC.
func (c *Config) loc() *time.Location {
	loc, err := c.timezone()
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) retryable(code string) bool {
	for _, rc := range c.RetryCodes {
		if rc == code {
			return true
		}
	}
	return false
}

func (c *Config) moduleEnabled(m Module) bool {
	for _, name := range c.Modules {
		if strings.EqualFold(name, m.String()) {
			return true
		}
	}
	return false
}
