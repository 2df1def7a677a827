// Package config handles configuration loading from CLI flags, environment
// variables, and TOML files.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all settings for the evaluation service.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Context ContextConfig `toml:"context"`
	Session SessionConfig `toml:"session"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig holds server listen settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ContextConfig holds evaluation context settings.
type ContextConfig struct {
	// Libraries is the namespace allow-list. Empty means the built-in
	// default list.
	Libraries []string `toml:"libraries"`
	// Local keeps session variables out of the interpreter globals.
	Local bool `toml:"local"`
	// Closed cuts contexts off from the ambient globals entirely.
	Closed bool `toml:"closed"`
	// Dir is the directory require resolves module files against.
	Dir string `toml:"dir"`
	// Reload drops changed modules under Dir from the require cache.
	Reload bool `toml:"reload"`
}

// SessionConfig holds session registry settings.
type SessionConfig struct {
	Timeout Duration `toml:"timeout"` // idle expiry (0 = never)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level     string `toml:"level"`     // "debug", "info", "warn", "error"
	Verbosity int    `toml:"verbosity"` // 0=none, 1=connections, 2=messages, 3=values
}

// verbosityCounter implements flag.Value for counting -v flags.
type verbosityCounter int

func (v *verbosityCounter) String() string {
	return fmt.Sprintf("%d", *v)
}

func (v *verbosityCounter) Set(string) error {
	*v++
	return nil
}

func (v *verbosityCounter) IsBoolFlag() bool {
	return true
}

// expandVerbosityFlags preprocesses args to expand -vvv into -v -v -v.
// This allows both "-v -v -v" and "-vvv" styles to work.
func expandVerbosityFlags(args []string) []string {
	result := make([]string, 0, len(args))
	for _, arg := range args {
		if len(arg) > 2 && arg[0] == '-' && arg[1] == 'v' {
			allV := true
			for _, c := range arg[1:] {
				if c != 'v' {
					allV = false
					break
				}
			}
			if allV {
				for range arg[1:] {
					result = append(result, "-v")
				}
				continue
			}
		}
		result = append(result, arg)
	}
	return result
}

// Duration is a time.Duration that can be unmarshaled from TOML strings.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// DefaultConfig returns a Config with all default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Context: ContextConfig{
			Local: true,
		},
		Session: SessionConfig{
			Timeout: Duration(time.Hour),
		},
		Logging: LoggingConfig{
			Level:     "info",
			Verbosity: 0,
		},
	}
}

// Load loads configuration from CLI flags, environment variables, and a TOML
// file. Priority: CLI flags > env vars > TOML file > defaults.
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()

	args = expandVerbosityFlags(args)

	fs := flag.NewFlagSet("luacell", flag.ContinueOnError)

	host := fs.String("host", "", "Listen address")
	port := fs.Int("port", 0, "Listen port")

	libraries := fs.String("libraries", "", "Comma-separated namespace allow-list")
	local := fs.Bool("local", true, "Keep session variables out of interpreter globals")
	closed := fs.Bool("closed", false, "Cut contexts off from ambient globals")
	dir := fs.String("dir", "", "Directory require resolves modules against")
	reload := fs.Bool("reload", false, "Re-read changed modules from the directory")

	sessionTimeout := fs.Duration("session-timeout", 0, "Idle session expiry (0=never)")

	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	var verbosity verbosityCounter
	fs.Var(&verbosity, "v", "Verbosity level (use -v, -vv, or -vvv)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	configPath := "luacell.toml"
	if *dir != "" {
		configPath = *dir + "/luacell.toml"
	}
	if err := cfg.loadTOML(configPath); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyEnv()

	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *libraries != "" {
		cfg.Context.Libraries = splitList(*libraries)
	}
	if set["local"] {
		cfg.Context.Local = *local
	}
	if *closed {
		cfg.Context.Closed = true
	}
	if *dir != "" {
		cfg.Context.Dir = *dir
	}
	if *reload {
		cfg.Context.Reload = true
	}
	if *sessionTimeout != 0 {
		cfg.Session.Timeout = Duration(*sessionTimeout)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if verbosity > 0 {
		cfg.Logging.Verbosity = int(verbosity)
	}

	return cfg, nil
}

// loadTOML loads configuration from a TOML file.
func (c *Config) loadTOML(path string) error {
	_, err := toml.DecodeFile(path, c)
	return err
}

// applyEnv applies environment variable overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("LUACELL_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("LUACELL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("LUACELL_LIBRARIES"); v != "" {
		c.Context.Libraries = splitList(v)
	}
	if v := os.Getenv("LUACELL_LOCAL"); v != "" {
		c.Context.Local = v == "true" || v == "1"
	}
	if v := os.Getenv("LUACELL_CLOSED"); v != "" {
		c.Context.Closed = v == "true" || v == "1"
	}
	if v := os.Getenv("LUACELL_DIR"); v != "" {
		c.Context.Dir = v
	}
	if v := os.Getenv("LUACELL_RELOAD"); v != "" {
		c.Context.Reload = v == "true" || v == "1"
	}
	if v := os.Getenv("LUACELL_SESSION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Session.Timeout = Duration(d)
		}
	}
	if v := os.Getenv("LUACELL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LUACELL_VERBOSITY"); v != "" {
		if verbosity, err := strconv.Atoi(v); err == nil {
			c.Logging.Verbosity = verbosity
		}
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Addr returns the host:port pair the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Verbosity returns the configured verbosity level.
func (c *Config) Verbosity() int {
	return c.Logging.Verbosity
}

// Log writes a message when the configured verbosity is at least level.
func (c *Config) Log(level int, format string, args ...any) {
	if c.Logging.Verbosity >= level {
		log.Printf(format, args...)
	}
}
