package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/blockpress/internal/resize"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Documents DocumentsConfig   `yaml:"documents"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	Editor    EditorConfig      `yaml:"editor"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Documents.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Editor.Validate()
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

// DocumentsConfig holds the path to the directory of document files.
type DocumentsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the documents configuration.
func (c *DocumentsConfig) Validate() error {
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

// EditorConfig tunes block creation, image resizing and image intake.
type EditorConfig struct {
	MinImageSize      float64       `yaml:"min_image_size"`
	DefaultImageWidth float64       `yaml:"default_image_width"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout"`
}

// Validate validates the editor configuration.
func (c *EditorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MinImageSize, validation.Required, validation.Min(1.0)),
		validation.Field(&c.DefaultImageWidth, validation.Required, validation.By(func(any) error {
			if c.DefaultImageWidth < c.MinImageSize {
				return fmt.Errorf("must not be below min_image_size (%g)", c.MinImageSize)
			}
			return nil
		})),
		validation.Field(&c.MaxUploadBytes, validation.Required, validation.Min(int64(1024))),
		validation.Field(&c.FetchTimeout, validation.Required, validation.Min(time.Second)),
	)
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
		Documents: DocumentsConfig{
			Path: "./documents",
		},
		SQLite: SQLiteConfig{
			Path: "./blockpress.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Editor: EditorConfig{
			MinImageSize:      resize.MinSize,
			DefaultImageWidth: 300,
			MaxUploadBytes:    10 << 20,
			FetchTimeout:      30 * time.Second,
		},
	}
}
