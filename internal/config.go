package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/inkpad/internal/copyfeedback"
	"github.com/starford/inkpad/internal/debounce"
	"github.com/starford/inkpad/internal/export"
	"github.com/starford/inkpad/internal/render"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Clipboard targets.
const (
	ClipboardBrowser = "browser"
	ClipboardSystem  = "system"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Render RenderConfig      `yaml:"render"`
	Editor EditorConfig      `yaml:"editor"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Render.Validate(); err != nil {
		return err
	}
	if err := c.Editor.Validate(); err != nil {
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

// SQLiteConfig holds the path of the snapshot database.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// RenderConfig controls the markdown pipeline.
type RenderConfig struct {
	AllowRawHTML bool            `yaml:"allow_raw_html"`
	Highlight    HighlightConfig `yaml:"highlight"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return c.Highlight.Validate()
}

// HighlightConfig names the chroma style of each theme.
type HighlightConfig struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
}

var knownStyle = validation.By(func(v any) error {
	if s, _ := v.(string); !render.KnownStyle(s) {
		return errors.New("unknown chroma style")
	}
	return nil
})

// Validate validates the highlight configuration.
func (c *HighlightConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Light, validation.Required, knownStyle),
		validation.Field(&c.Dark, validation.Required, knownStyle),
	)
}

// EditorConfig holds the editing session settings.
//
// FollowFile, when set, is loaded into the document at startup and reloaded
// on every write. Clipboard selects where code block copies go: "browser"
// leaves the write to the page, "system" writes the clipboard of the host.
type EditorConfig struct {
	Debounce      time.Duration `yaml:"debounce"`
	CopyReset     time.Duration `yaml:"copy_reset"`
	ExportLinkTTL time.Duration `yaml:"export_link_ttl"`
	FollowFile    string        `yaml:"follow_file"`
	Clipboard     string        `yaml:"clipboard"`
}

// Validate validates the editor configuration.
func (c *EditorConfig) Validate() error {
	if c.Clipboard == "" {
		c.Clipboard = ClipboardBrowser
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Required, validation.Max(10*time.Second)),
		validation.Field(&c.CopyReset, validation.Required),
		validation.Field(&c.ExportLinkTTL, validation.Required),
		validation.Field(&c.Clipboard, validation.In(ClipboardBrowser, ClipboardSystem)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
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
		SQLite: SQLiteConfig{
			Path: "./inkpad.db",
		},
		Render: RenderConfig{
			AllowRawHTML: true,
			Highlight: HighlightConfig{
				Light: render.DefaultHighlightStyle,
				Dark:  "monokai",
			},
		},
		Editor: EditorConfig{
			Debounce:      debounce.DefaultWait,
			CopyReset:     copyfeedback.DefaultResetAfter,
			ExportLinkTTL: export.DefaultLinkTTL,
			Clipboard:     ClipboardBrowser,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
