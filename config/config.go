// Package config provides configuration loading for castor using TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"castor/gopher"
)

// General settings
type General struct {
	StartURL string `toml:"start_url"`
}

// Network settings shared by all protocol clients
type Network struct {
	ConnectTimeoutSeconds int    `toml:"connect_timeout_seconds"`
	IdleTimeoutSeconds    int    `toml:"idle_timeout_seconds"` // 0 disables
	MaxBodyBytes          int64  `toml:"max_body_bytes"`       // 0 disables
	AcceptAnyCertificate  bool   `toml:"accept_any_certificate"`
	Proxy                 string `toml:"proxy"` // e.g. socks5://127.0.0.1:9050
}

// Navigation settings
type Navigation struct {
	MaxRedirects       int    `toml:"max_redirects"`
	GopherSelectorRule string `toml:"gopher_selector_rule"` // strict, loose or none
}

// Display settings
type Display struct {
	GeminiMonospace bool `toml:"gemini_monospace"`
	GopherMonospace bool `toml:"gopher_monospace"`
	FingerMonospace bool `toml:"finger_monospace"`
	Width           int  `toml:"width"` // 0 = terminal width
}

// Colors used by the renderer, as hex strings or ANSI color numbers
type Colors struct {
	H1         string `toml:"h1"`
	H2         string `toml:"h2"`
	H3         string `toml:"h3"`
	List       string `toml:"list"`
	Text       string `toml:"text"`
	Background string `toml:"background"`
}

// Characters prefixed to headings and list items
type Characters struct {
	H1   string `toml:"h1"`
	H2   string `toml:"h2"`
	H3   string `toml:"h3"`
	List string `toml:"list"`
}

// Logging settings
type Logging struct {
	Level string `toml:"level"` // debug, info, warn, error
	File  string `toml:"file"`  // empty = stderr
}

// Bookmarks settings
type Bookmarks struct {
	Path string `toml:"path"` // empty = ~/.config/castor/bookmarks.toml
}

// Config is the main configuration struct
type Config struct {
	General    General    `toml:"general"`
	Network    Network    `toml:"network"`
	Navigation Navigation `toml:"navigation"`
	Display    Display    `toml:"display"`
	Colors     Colors     `toml:"colors"`
	Characters Characters `toml:"characters"`
	Logging    Logging    `toml:"logging"`
	Bookmarks  Bookmarks  `toml:"bookmarks"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		General: General{
			StartURL: "gemini://geminiprotocol.net/",
		},
		Network: Network{
			ConnectTimeoutSeconds: 5,
			IdleTimeoutSeconds:    30,
			MaxBodyBytes:          16 << 20,
			AcceptAnyCertificate:  true,
		},
		Navigation: Navigation{
			MaxRedirects:       5,
			GopherSelectorRule: "strict",
		},
		Display: Display{
			GeminiMonospace: false,
			GopherMonospace: true,
			FingerMonospace: true,
		},
		Colors: Colors{
			H1:   "#9932CC",
			H2:   "#FF1493",
			H3:   "#87CEFA",
			List: "#008000",
		},
		Characters: Characters{
			List: "■",
		},
		Logging: Logging{
			Level: "warn",
		},
	}
}

// configDir returns the configuration directory path.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "castor"), nil
}

// ConfigPath returns the path to the user's config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// BookmarksPath returns the bookmark file location.
func (c *Config) BookmarksPath() (string, error) {
	if c.Bookmarks.Path != "" {
		return c.Bookmarks.Path, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "bookmarks.toml"), nil
}

// Load loads configuration from the default path, layering user config on
// top of defaults. Returns the default config if no user config exists.
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return Default(), nil // Return defaults if we can't determine path
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path. A missing file yields the
// defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	var user Config
	md, err := toml.DecodeFile(path, &user)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}

	result := merge(cfg, &user, md)
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	return result, nil
}

// merge layers user config on top of defaults. Strings and numbers override
// when non-zero; booleans and numbers where zero is meaningful override
// only when the key appears in the file.
func merge(defaults, user *Config, md toml.MetaData) *Config {
	result := *defaults

	mergeString(&result.General.StartURL, user.General.StartURL)

	// Network
	if user.Network.ConnectTimeoutSeconds != 0 {
		result.Network.ConnectTimeoutSeconds = user.Network.ConnectTimeoutSeconds
	}
	if md.IsDefined("network", "idle_timeout_seconds") {
		result.Network.IdleTimeoutSeconds = user.Network.IdleTimeoutSeconds
	}
	if md.IsDefined("network", "max_body_bytes") {
		result.Network.MaxBodyBytes = user.Network.MaxBodyBytes
	}
	if md.IsDefined("network", "accept_any_certificate") {
		result.Network.AcceptAnyCertificate = user.Network.AcceptAnyCertificate
	}
	mergeString(&result.Network.Proxy, user.Network.Proxy)

	// Navigation
	if user.Navigation.MaxRedirects != 0 {
		result.Navigation.MaxRedirects = user.Navigation.MaxRedirects
	}
	mergeString(&result.Navigation.GopherSelectorRule, user.Navigation.GopherSelectorRule)

	// Display
	if md.IsDefined("display", "gemini_monospace") {
		result.Display.GeminiMonospace = user.Display.GeminiMonospace
	}
	if md.IsDefined("display", "gopher_monospace") {
		result.Display.GopherMonospace = user.Display.GopherMonospace
	}
	if md.IsDefined("display", "finger_monospace") {
		result.Display.FingerMonospace = user.Display.FingerMonospace
	}
	if user.Display.Width != 0 {
		result.Display.Width = user.Display.Width
	}

	// Colors
	mergeString(&result.Colors.H1, user.Colors.H1)
	mergeString(&result.Colors.H2, user.Colors.H2)
	mergeString(&result.Colors.H3, user.Colors.H3)
	mergeString(&result.Colors.List, user.Colors.List)
	mergeString(&result.Colors.Text, user.Colors.Text)
	mergeString(&result.Colors.Background, user.Colors.Background)

	// Characters; an empty string is a valid choice
	mergeDefined(md, &result.Characters.H1, user.Characters.H1, "characters", "h1")
	mergeDefined(md, &result.Characters.H2, user.Characters.H2, "characters", "h2")
	mergeDefined(md, &result.Characters.H3, user.Characters.H3, "characters", "h3")
	mergeDefined(md, &result.Characters.List, user.Characters.List, "characters", "list")

	mergeString(&result.Logging.Level, user.Logging.Level)
	mergeString(&result.Logging.File, user.Logging.File)
	mergeString(&result.Bookmarks.Path, user.Bookmarks.Path)

	return &result
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func mergeDefined(md toml.MetaData, dst *string, src string, key ...string) {
	if md.IsDefined(key...) {
		*dst = src
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.Network.ConnectTimeoutSeconds < 0 {
		return fmt.Errorf("network.connect_timeout_seconds must not be negative")
	}
	if c.Network.IdleTimeoutSeconds < 0 {
		return fmt.Errorf("network.idle_timeout_seconds must not be negative")
	}
	if c.Network.MaxBodyBytes < 0 {
		return fmt.Errorf("network.max_body_bytes must not be negative")
	}
	if c.Navigation.MaxRedirects < 0 {
		return fmt.Errorf("navigation.max_redirects must not be negative")
	}
	if c.Display.Width < 0 {
		return fmt.Errorf("display.width must not be negative")
	}
	if _, err := gopher.ParseSelectorRule(c.Navigation.GopherSelectorRule); err != nil {
		return fmt.Errorf("navigation.gopher_selector_rule: %w", err)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	return nil
}

// ConnectTimeout returns the connect timeout as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Network.ConnectTimeoutSeconds) * time.Second
}

// IdleTimeout returns the per-read timeout as a duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Network.IdleTimeoutSeconds) * time.Second
}

// SelectorRule returns the configured gopher selector rule.
func (c *Config) SelectorRule() gopher.SelectorRule {
	rule, _ := gopher.ParseSelectorRule(c.Navigation.GopherSelectorRule)
	return rule
}

// Monospace reports whether pages served over scheme are shown as-is
// without wrapping.
func (c *Config) Monospace(scheme string) bool {
	switch scheme {
	case "gopher":
		return c.Display.GopherMonospace
	case "finger":
		return c.Display.FingerMonospace
	default:
		return c.Display.GeminiMonospace
	}
}

// DefaultTOML returns the default configuration as a TOML string.
// Used for --init-config to generate a user config file.
func DefaultTOML() string {
	return `# castor configuration
# Save to ~/.config/castor/config.toml and customize
# Only include settings you want to change from defaults

[general]
start_url = "gemini://geminiprotocol.net/"

# Network settings
[network]
connect_timeout_seconds = 5
idle_timeout_seconds = 30      # 0 waits forever
max_body_bytes = 16777216      # 0 means no limit
accept_any_certificate = true  # most capsules use self-signed certificates
proxy = ""                     # e.g. "socks5://127.0.0.1:9050"

[navigation]
max_redirects = 5
gopher_selector_rule = "strict"  # "strict", "loose" or "none"

# Display settings
[display]
gemini_monospace = false
gopher_monospace = true
finger_monospace = true
width = 0                      # 0 = terminal width

# Colors (hex or ANSI number; empty = terminal default)
[colors]
h1 = "#9932CC"
h2 = "#FF1493"
h3 = "#87CEFA"
list = "#008000"
text = ""
background = ""

[characters]
h1 = ""
h2 = ""
h3 = ""
list = "■"

[logging]
level = "warn"                 # debug, info, warn or error
file = ""                      # log file, rotated; empty = stderr

[bookmarks]
path = ""                      # empty = ~/.config/castor/bookmarks.toml
`
}
