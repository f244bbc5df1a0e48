package internal

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/wristlog/internal/protocol"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Store   StoreConfig       `yaml:"store"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Device  DeviceConfig      `yaml:"device"`
	Capture CaptureConfig     `yaml:"capture"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Device.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig holds the root directory of the daily records.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// DeviceConfig describes the watch to connect to.
//
// Address, when set, selects the peripheral directly; otherwise the first device
// advertising Name is used. PairKey is the 4-byte key as 8 hex digits.
type DeviceConfig struct {
	Name           string        `yaml:"name"`
	Address        string        `yaml:"address"`
	PairKey        string        `yaml:"pair_key"`
	ScanTimeout    time.Duration `yaml:"scan_timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SyncOnConnect  bool          `yaml:"sync_on_connect"`
	// KeepAlive is the battery poll interval of a session; zero disables it.
	KeepAlive time.Duration `yaml:"keep_alive"`
}

var errPairKey = errors.New("must be 8 hex digits")

// Validate validates the device configuration.
func (c *DeviceConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.When(c.Address == "", validation.Required)),
		validation.Field(&c.PairKey, validation.Required, validation.By(func(any) error {
			_, err := c.Key()
			return err
		})),
		validation.Field(&c.ScanTimeout, validation.Min(time.Second)),
		validation.Field(&c.ConnectTimeout, validation.Min(time.Second)),
		validation.Field(&c.KeepAlive, validation.Min(time.Second)),
	); err != nil {
		return fmt.Errorf("device: %w", err)
	}
	return nil
}

// Key decodes PairKey.
func (c *DeviceConfig) Key() (protocol.PairKey, error) {
	var key protocol.PairKey
	raw, err := hex.DecodeString(c.PairKey)
	if err != nil || len(raw) != len(key) {
		return key, errPairKey
	}
	copy(key[:], raw)
	return key, nil
}

// CaptureConfig holds the path of the traffic capture log. An empty path disables capture.
type CaptureConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Path: "./data",
		},
		SQLite: SQLiteConfig{
			Path: "./wristlog.db",
		},
		Device: DeviceConfig{
			Name:           protocol.DeviceName,
			PairKey:        "00000000",
			ScanTimeout:    30 * time.Second,
			ConnectTimeout: 10 * time.Second,
			SyncOnConnect:  true,
			KeepAlive:      30 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
