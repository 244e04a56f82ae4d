// Package config holds the settings shared by every docbridge command.
//
// Values come from flags, DOCBRIDGE_* environment variables and JSON
// configuration files. Flags always win.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/internal/logging"
)

// Config is embedded in the CLI root so its fields become global flags.
type Config struct {
	LogLevel  string        `name:"log-level" env:"DOCBRIDGE_LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string        `name:"log-format" env:"DOCBRIDGE_LOG_FORMAT" default:"text" enum:"json,text" help:"Log format (json, text)"`
	ImagesDir string        `name:"images-dir" env:"DOCBRIDGE_IMAGES_DIR" type:"path" xor:"images" help:"Directory images are loaded from and saved to"`
	ImageDB   string        `name:"image-db" env:"DOCBRIDGE_IMAGE_DB" type:"path" xor:"images" help:"SQLite database images are loaded from and saved to"`
	Timeout   time.Duration `name:"timeout" env:"DOCBRIDGE_TIMEOUT" default:"30s" help:"Conversion deadline, 0 for none"`
}

// Paths lists the configuration files kong reads. Missing files are skipped.
func Paths() []string {
	return []string{
		"~/.config/docbridge/config.json",
		"./.docbridge.json",
	}
}

// Options returns the kong options for a docbridge parser reading the given
// configuration files.
func Options(paths ...string) []kong.Option {
	return []kong.Option{
		kong.Name("docbridge"),
		kong.Description("Convert documents between formats through a common document model"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Configuration(kong.JSON, paths...),
	}
}

// Validate reports settings kong cannot check through tags.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return errors.NewValidation("timeout", fmt.Sprintf("must not be negative, got %s", c.Timeout))
	}
	if c.ImagesDir != "" && c.ImageDB != "" {
		return errors.NewValidation("images-dir", "cannot be combined with image-db")
	}
	return nil
}

// InitLogging configures the global logger from the log settings.
func (c *Config) InitLogging() {
	logging.InitLogger(logging.ParseLevel(c.LogLevel), logging.ParseFormat(c.LogFormat))
}

// Context derives a context carrying the conversion deadline.
func (c *Config) Context(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}
