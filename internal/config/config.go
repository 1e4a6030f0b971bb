// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/dsamentor/internal/cloud"
	"github.com/jeranaias/dsamentor/internal/storage"
	"github.com/jeranaias/dsamentor/internal/util"
)

// AppDirName is the directory under the user's home holding config and data.
const AppDirName = ".dsamentor"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete dsamentor configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	API      APIConfig      `toml:"api" json:"api"`
	Storage  StorageConfig  `toml:"storage" json:"storage"`
	Playback PlaybackConfig `toml:"playback" json:"playback"`
	Logging  LoggingConfig  `toml:"logging" json:"logging"`
}

// APIConfig selects the hosted model.
type APIConfig struct {
	// Provider is "gemini" or "openai" (any OpenAI-compatible endpoint).
	Provider string `toml:"provider" json:"provider"`

	APIKey  string `toml:"api_key" json:"api_key,omitempty"`
	Model   string `toml:"model" json:"model,omitempty"`
	BaseURL string `toml:"base_url" json:"base_url,omitempty"`

	TimeoutSecs       int `toml:"timeout_secs" json:"timeout_secs"`
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
}

// StorageConfig selects where conversations are kept.
type StorageConfig struct {
	// Backend is "bolt", "file" or "sqlite".
	Backend string `toml:"backend" json:"backend"`

	// DataDir holds the store and the log. "~" expands to the home directory.
	DataDir string `toml:"data_dir" json:"data_dir,omitempty"`
}

// PlaybackConfig controls the progressive reveal of replies.
type PlaybackConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
}

// LoggingConfig controls the log file.
type LoggingConfig struct {
	Level string `toml:"level" json:"level"`

	// File overrides the log path. Empty means <data_dir>/dsamentor.log.
	File string `toml:"file" json:"file,omitempty"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Version: "1",
		API: APIConfig{
			Provider:          cloud.ProviderGemini,
			TimeoutSecs:       int(cloud.DefaultTimeout / time.Second),
			RequestsPerMinute: cloud.DefaultRequestsPerMinute,
		},
		Storage: StorageConfig{
			Backend: string(storage.BackendBolt),
		},
		Playback: PlaybackConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the dsamentor directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, AppDirName), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DataDir returns the resolved data directory.
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir == "" {
		return ConfigDir()
	}
	return expandHome(c.Storage.DataDir)
}

// LogPath returns the resolved log file path.
func (c *Config) LogPath() (string, error) {
	if c.Logging.File != "" {
		return expandHome(c.Logging.File)
	}
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "dsamentor.log"), nil
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ensureSecurePermissions narrows a config file to 0600; it may hold a key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		if err := os.Chmod(path, 0o600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.dsamentor/config.toml, falling back to config.json and then
// to the defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return LoadFromPath(path)
		}
	}
	return finish(Default())
}

// LoadFromPath loads configuration from a specific file. Files ending in
// .json are read as JSON, anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	var err error
	if strings.HasSuffix(path, ".json") {
		err = LoadJSON(cfg, path)
	} else {
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		logrus.WithError(err).WithField("path", path).Warn("could not ensure secure permissions")
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		logrus.WithError(err).WithField("path", path).Warn("could not ensure secure permissions")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes cfg to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# dsamentor configuration file\n")
	sb.WriteString("# Environment variables (DSAMENTOR_*) override these values.\n\n")
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg to path as indented JSON with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every setting and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if err := cloud.ValidateProvider(c.API.Provider); err != nil {
		errs = append(errs, ValidationError{Field: "api.provider", Message: err.Error()})
	}
	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "api.timeout_secs",
			Message: fmt.Sprintf("must be between 1 and 600, got %d", c.API.TimeoutSecs),
		})
	}
	if c.API.RequestsPerMinute < -1 {
		errs = append(errs, ValidationError{
			Field:   "api.requests_per_minute",
			Message: "must be positive, 0 for the default, or -1 to disable pacing",
		})
	}
	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "api.base_url",
				Message: fmt.Sprintf("invalid URL %q, must be http(s)://host[/path]", c.API.BaseURL),
			})
		}
	}

	if _, err := storage.ParseBackend(c.Storage.Backend); err != nil {
		errs = append(errs, ValidationError{Field: "storage.backend", Message: err.Error()})
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, ValidationError{Field: "logging.level", Message: err.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills empty settings with the built-in defaults.
func (c *Config) SetDefaults() {
	defaults := Default()
	if c.Version == "" {
		c.Version = defaults.Version
	}
	c.API.Provider = strings.ToLower(strings.TrimSpace(c.API.Provider))
	if c.API.Provider == "" {
		c.API.Provider = defaults.API.Provider
	}
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if c.API.RequestsPerMinute == 0 {
		c.API.RequestsPerMinute = defaults.API.RequestsPerMinute
	}
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variables:
//   - DSAMENTOR_API_KEY: overrides api.api_key
//   - GEMINI_API_KEY: used when no other key is set
//   - DSAMENTOR_PROVIDER: overrides api.provider
//   - DSAMENTOR_MODEL: overrides api.model
//   - DSAMENTOR_BASE_URL: overrides api.base_url
//   - DSAMENTOR_DATA_DIR: overrides storage.data_dir
//   - DSAMENTOR_STORAGE: overrides storage.backend
//   - DSAMENTOR_PLAYBACK: overrides playback.enabled
//   - DSAMENTOR_LOG_LEVEL: overrides logging.level
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.API.APIKey == "" {
		c.API.APIKey = key
	}
	if key := os.Getenv("DSAMENTOR_API_KEY"); key != "" {
		c.API.APIKey = key
	}
	if provider := os.Getenv("DSAMENTOR_PROVIDER"); provider != "" {
		c.API.Provider = provider
	}
	if model := os.Getenv("DSAMENTOR_MODEL"); model != "" {
		c.API.Model = model
	}
	if baseURL := os.Getenv("DSAMENTOR_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if dir := os.Getenv("DSAMENTOR_DATA_DIR"); dir != "" {
		c.Storage.DataDir = dir
	}
	if backend := os.Getenv("DSAMENTOR_STORAGE"); backend != "" {
		c.Storage.Backend = backend
	}
	if playback := os.Getenv("DSAMENTOR_PLAYBACK"); playback != "" {
		c.Playback.Enabled = parseBool(playback)
	}
	if level := os.Getenv("DSAMENTOR_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Keys lists every setting in dot notation.
func Keys() []string {
	return []string{
		"version",
		"api.provider",
		"api.api_key",
		"api.model",
		"api.base_url",
		"api.timeout_secs",
		"api.requests_per_minute",
		"storage.backend",
		"storage.data_dir",
		"playback.enabled",
		"logging.level",
		"logging.file",
	}
}

// Get retrieves a value by dot-notation key (e.g. "api.model").
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value by dot-notation key. String values are converted to
// the field's type.
func (c *Config) Set(key string, value any) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field := fieldByTag(v, part)
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// fieldByTag finds the struct field whose toml tag is name.
func fieldByTag(v reflect.Value, name string) reflect.Value {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ",")
		if tag == name {
			return v.Field(i)
		}
	}
	return reflect.Value{}
}

// setFieldValue sets a reflect.Value with string conversion.
func setFieldValue(field reflect.Value, value any) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			field.SetBool(parseBool(strVal))
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	if safe.API.APIKey != "" {
		safe.API.APIKey = "[REDACTED]"
	}
	return safe
}

// String returns the config as JSON with the key redacted.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c.Redacted(), "", "  ")
	return string(data)
}
