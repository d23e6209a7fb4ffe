// Package config holds the retouch configuration file and its loader.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/example/retouch/internal/theme"
)

// Config holds the application configuration.
type Config struct {
	Theme  string                       `toml:"theme,omitempty"`
	Server ServerConfig                 `toml:"server"`
	Client ClientConfig                 `toml:"client"`
	Editor EditorConfig                 `toml:"editor"`
	Notify NotifyConfig                 `toml:"notify"`
	Themes map[string]map[string]string `toml:"themes,omitempty"`
}

// ServerConfig configures `retouch serve`.
type ServerConfig struct {
	Listen         string `toml:"listen"`
	UploadsDir     string `toml:"uploads_dir"`
	Storage        string `toml:"storage"`
	ClientHost     string `toml:"client_host,omitempty"`
	MaxUploadBytes int64  `toml:"max_upload_bytes"`
	SQLiteDSN      string `toml:"sqlite_dsn,omitempty"`
	S3Bucket       string `toml:"s3_bucket,omitempty"`
	LogLevel       string `toml:"log_level"`
}

type ClientConfig struct {
	ServerURL string `toml:"server_url"`
}

// EditorConfig holds defaults for the editing session.
type EditorConfig struct {
	StrokeColor  string  `toml:"stroke_color"`
	StrokeWidth  float64 `toml:"stroke_width"`
	Interpolator string  `toml:"interpolator"`
	JPEGQuality  int     `toml:"jpeg_quality"`
	// Background fills the canvas outside the transformed image.
	Background string `toml:"background,omitempty"`
}

type NotifyConfig struct {
	Desktop bool   `toml:"desktop"`
	Title   string `toml:"title,omitempty"`
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:         ":3000",
			UploadsDir:     "uploads",
			Storage:        "filesystem",
			MaxUploadBytes: 10 << 20,
			LogLevel:       "info",
		},
		Client: ClientConfig{ServerURL: "http://localhost:3000"},
		Editor: EditorConfig{
			StrokeColor:  "black",
			StrokeWidth:  3,
			Interpolator: "bilinear",
			JPEGQuality:  92,
		},
		Themes: map[string]map[string]string{},
	}
}

// Parse reads TOML configuration from r on top of the defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		logrus.WithField("keys", undecoded).Warn("unrecognized config keys")
	}
	cfg.validate()
	return cfg, nil
}

// validate resets invalid values to their defaults.
func (c *Config) validate() {
	d := New()
	if c.Server.Listen == "" {
		c.Server.Listen = d.Server.Listen
	}
	if c.Server.UploadsDir == "" {
		c.Server.UploadsDir = d.Server.UploadsDir
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = d.Server.MaxUploadBytes
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = d.Server.LogLevel
	}
	if c.Editor.StrokeWidth <= 0 {
		c.Editor.StrokeWidth = d.Editor.StrokeWidth
	}
	if c.Editor.JPEGQuality < 1 || c.Editor.JPEGQuality > 100 {
		c.Editor.JPEGQuality = d.Editor.JPEGQuality
	}
	if c.Themes == nil {
		c.Themes = map[string]map[string]string{}
	}
}

// ApplyEnv overrides fields from environment variables. lookup is normally
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("SERVER_PORT"); ok && v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			c.Server.Listen = ":" + v
		} else {
			c.Server.Listen = v
		}
	}
	str := map[string]*string{
		"UPLOADS_DIRECTORY_NAME": &c.Server.UploadsDir,
		"CLIENT_HOST":            &c.Server.ClientHost,
		"STORAGE_TYPE":           &c.Server.Storage,
		"DATA_SOURCE_NAME":       &c.Server.SQLiteDSN,
		"S3_BUCKET_NAME":         &c.Server.S3Bucket,
		"RETOUCH_SERVER_URL":     &c.Client.ServerURL,
		"RETOUCH_THEME":          &c.Theme,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
}

// ClientHosts splits the comma separated client_host value.
func (c *Config) ClientHosts() []string {
	var out []string
	for _, h := range strings.Split(c.Server.ClientHost, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// ResolveTheme returns the named theme. Themes defined in the config file
// start from Default and take precedence over built-ins of the same name.
func (c *Config) ResolveTheme(name string) (*theme.Theme, error) {
	if name == "" {
		name = c.Theme
	}
	if colors, ok := c.Themes[name]; ok {
		return theme.Default().Override(name, colors)
	}
	return theme.Lookup(name)
}

// String implements fmt.Stringer and returns the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("# error encoding config: %v\n", err)
	}
	return buf.String()
}

// ThemeNames lists the configured and built-in theme names.
func (c *Config) ThemeNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, n := range theme.Names() {
		seen[n] = true
		names = append(names, n)
	}
	for n := range c.Themes {
		if !seen[n] {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(c.String()), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
