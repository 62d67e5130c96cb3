package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application-level configuration.
type Config struct {
	SiteURL       string        `validate:"required,url"` // e.g. "https://mumlife.co.uk/"
	APIURL        string        `validate:"required,url"` // defaults to SiteURL + "1/"
	MessagePath   string        `validate:"required"`
	LoginPath     string        // relative to SiteURL; empty is the home page
	Dir           string        `validate:"required"`
	Timeout       time.Duration `validate:"gt=0"`
	AutoloadLines int           `validate:"gt=0"`
	LogLevel      string        `validate:"oneof=debug info warn error"`

	ProfileEntity string   // e.g. "members/12"
	ProfileFields []string // fields edited from the profile view

	CookiePath  string
	UIStatePath string
	LogPath     string
}

// Load reads configuration from environment variables, after loading
// a .env file from the working directory when one exists.
//
//	MUMLIFE_SITE_URL        site root (default: https://mumlife.co.uk/)
//	MUMLIFE_API_URL         REST root (default: <site>1/)
//	MUMLIFE_MESSAGE_PATH    message endpoint (default: message/post)
//	MUMLIFE_LOGIN_PATH      login form path (default: site root)
//	MUMLIFE_CONFIG_DIR      state directory (default: ~/.config/mumlife)
//	MUMLIFE_TIMEOUT         request timeout (default: 15s)
//	MUMLIFE_AUTOLOAD_LINES  lines from the bottom that trigger a load (default: 8)
//	MUMLIFE_LOG_LEVEL       debug|info|warn|error (default: info)
//	MUMLIFE_PROFILE_ENTITY  API entity edited by the profile view
//	MUMLIFE_PROFILE_FIELDS  comma separated field names
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	site, err := normalizeURL("MUMLIFE_SITE_URL", getEnv("MUMLIFE_SITE_URL", "https://mumlife.co.uk/"))
	if err != nil {
		return Config{}, err
	}
	api, err := normalizeURL("MUMLIFE_API_URL", getEnv("MUMLIFE_API_URL", site+"1/"))
	if err != nil {
		return Config{}, err
	}

	dir := os.Getenv("MUMLIFE_CONFIG_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config", "mumlife")
	}

	timeout, err := time.ParseDuration(getEnv("MUMLIFE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid MUMLIFE_TIMEOUT: %w", err)
	}
	lines, err := strconv.Atoi(getEnv("MUMLIFE_AUTOLOAD_LINES", "8"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid MUMLIFE_AUTOLOAD_LINES: %w", err)
	}

	cfg := Config{
		SiteURL:       site,
		APIURL:        api,
		MessagePath:   strings.TrimLeft(getEnv("MUMLIFE_MESSAGE_PATH", "message/post"), "/"),
		LoginPath:     strings.TrimLeft(os.Getenv("MUMLIFE_LOGIN_PATH"), "/"),
		Dir:           dir,
		Timeout:       timeout,
		AutoloadLines: lines,
		LogLevel:      strings.ToLower(getEnv("MUMLIFE_LOG_LEVEL", "info")),
		ProfileEntity: strings.Trim(os.Getenv("MUMLIFE_PROFILE_ENTITY"), "/"),
		ProfileFields: splitList(os.Getenv("MUMLIFE_PROFILE_FIELDS")),
		CookiePath:    filepath.Join(dir, "cookies.json"),
		UIStatePath:   filepath.Join(dir, "ui_state.json"),
		LogPath:       filepath.Join(dir, "mumlife.log"),
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func normalizeURL(name, raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid %s: must be an absolute URL", name)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return "", fmt.Errorf("invalid %s: only http(s) is allowed", name)
	}
	return strings.TrimRight(parsed.String(), "/") + "/", nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// UIState is the part of the UI restored between runs.
type UIState struct {
	Filter string `json:"filter,omitempty"`
	Events bool   `json:"events,omitempty"`
	Range  int    `json:"range,omitempty"`
}

// LoadUIState reads the persisted UI state. A missing file yields the
// zero state.
func LoadUIState(path string) (UIState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return UIState{}, nil
	}
	if err != nil {
		return UIState{}, fmt.Errorf("reading ui state: %w", err)
	}
	var st UIState
	if err := json.Unmarshal(data, &st); err != nil {
		return UIState{}, fmt.Errorf("parsing ui state: %w", err)
	}
	return st, nil
}

// SaveUIState writes st to path, creating the directory if needed.
func SaveUIState(path string, st UIState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding ui state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing ui state: %w", err)
	}
	return nil
}
