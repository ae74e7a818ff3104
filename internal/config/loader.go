package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "FOCUS_"

// Config captures configuration values for the focus ledger service.
type Config struct {
	HTTPPort               int
	DatabasePath           string
	SessionTTL             time.Duration
	LoginCodeTTL           time.Duration
	TZOffsetMinutes        int
	AdminEmails            []string
	RequestTimeout         time.Duration
	PresenceRecentWindow   time.Duration
	PresenceInactiveWindow time.Duration
	LogLevel               string
}

// Defaults returns the configuration used when nothing overrides a value.
func Defaults() Config {
	return Config{
		HTTPPort:               8080,
		DatabasePath:           "focus.db",
		SessionTTL:             7 * 24 * time.Hour,
		LoginCodeTTL:           10 * time.Minute,
		TZOffsetMinutes:        330,
		RequestTimeout:         15 * time.Second,
		PresenceRecentWindow:   5 * time.Minute,
		PresenceInactiveWindow: 30 * 24 * time.Hour,
		LogLevel:               "info",
	}
}

// Load reads a .env file from the working directory when present and then
// parses the process environment. See LoadFrom.
func Load() (Config, error) {
	return LoadFrom(".env")
}

// LoadFrom loads envFile into the process environment without overriding
// variables that are already set, reads the optional YAML file named by
// FOCUS_CONFIG_FILE, and applies environment variables on top of it.
//
// YAML keys are the lower-case variable names without the FOCUS_ prefix,
// e.g. "http_port" or "admin_emails".
func LoadFrom(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	file, err := readFile(strings.TrimSpace(os.Getenv(envPrefix + "CONFIG_FILE")))
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) string {
		if value := strings.TrimSpace(os.Getenv(envPrefix + key)); value != "" {
			return value
		}
		return file[strings.ToLower(key)]
	}

	cfg := Defaults()
	invalid := make([]string, 0, 2)

	if portValue := lookup("HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, envPrefix+"HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if path := lookup("DATABASE_PATH"); path != "" {
		cfg.DatabasePath = path
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SESSION_TTL", &cfg.SessionTTL},
		{"LOGIN_CODE_TTL", &cfg.LoginCodeTTL},
		{"REQUEST_TIMEOUT", &cfg.RequestTimeout},
		{"PRESENCE_RECENT_WINDOW", &cfg.PresenceRecentWindow},
		{"PRESENCE_INACTIVE_WINDOW", &cfg.PresenceInactiveWindow},
	}
	for _, d := range durations {
		raw := lookup(d.key)
		if raw == "" {
			continue
		}
		value, err := time.ParseDuration(raw)
		if err != nil || value <= 0 {
			invalid = append(invalid, envPrefix+d.key)
			continue
		}
		*d.dst = value
	}

	if offsetValue := lookup("TZ_OFFSET_MINUTES"); offsetValue != "" {
		offset, err := strconv.Atoi(offsetValue)
		if err != nil || offset < -12*60 || offset > 14*60 {
			invalid = append(invalid, envPrefix+"TZ_OFFSET_MINUTES")
		} else {
			cfg.TZOffsetMinutes = offset
		}
	}

	if emails := lookup("ADMIN_EMAILS"); emails != "" {
		for _, email := range strings.Split(emails, ",") {
			if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
				cfg.AdminEmails = append(cfg.AdminEmails, email)
			}
		}
	}

	if level := lookup("LOG_LEVEL"); level != "" {
		switch strings.ToLower(level) {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = strings.ToLower(level)
		default:
			invalid = append(invalid, envPrefix+"LOG_LEVEL")
		}
	}

	if cfg.PresenceInactiveWindow < cfg.PresenceRecentWindow {
		invalid = append(invalid, envPrefix+"PRESENCE_INACTIVE_WINDOW")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// readFile flattens a YAML mapping into lower-case keys. Sequences are
// joined with commas so list values share the environment syntax.
func readFile(path string) (map[string]string, error) {
	values := map[string]string{}
	if path == "" {
		return values, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	for key, value := range raw {
		key = strings.ToLower(strings.TrimSpace(key))
		switch v := value.(type) {
		case nil:
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			values[key] = strings.Join(parts, ",")
		default:
			values[key] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return values, nil
}
