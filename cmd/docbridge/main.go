// Command docbridge converts documents between formats through the common
// document model.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/core/sqlite"
	"github.com/FocuswithJustin/docbridge/internal/config"
	"github.com/FocuswithJustin/docbridge/internal/detect"

	// Register the built-in format modules.
	_ "github.com/FocuswithJustin/docbridge/internal/embedded"
)

const version = "0.1.0"

// CLI defines the command-line interface for docbridge.
type CLI struct {
	config.Config `embed:""`

	Convert ConvertCmd `cmd:"" help:"Convert a document to another format"`
	Formats FormatsCmd `cmd:"" help:"List supported formats and their capabilities"`
	Inspect InspectCmd `cmd:"" help:"Summarize the document model of a file"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// runtime is bound into every command's Run method.
type runtime struct {
	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli, config.Options(config.Paths()...)...)
	cli.InitLogging()
	err := ctx.Run(&runtime{
		cfg:    &cli.Config,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	})
	ctx.FatalIfErrorf(err)
}

// FormatsCmd lists the registry.
type FormatsCmd struct {
	JSON bool `name:"json" help:"Print capabilities as JSON"`
}

func (c *FormatsCmd) Run(rt *runtime) error {
	caps := docbridge.Capabilities()
	if c.JSON {
		enc := json.NewEncoder(rt.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(caps)
	}
	fmt.Fprintf(rt.stdout, "%-10s %-6s %-7s %-10s %s\n", "FORMAT", "EXT", "IMAGES", "CANONICAL", "WRITE")
	for _, cp := range caps {
		fmt.Fprintf(rt.stdout, "%-10s %-6s %-7s %-10s %s\n", cp.Name, detect.Extension(cp.Name),
			yesNo(cp.Images), yesNo(cp.Canonical), yesNo(!cp.ReadOnly))
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(rt *runtime) error {
	info := sqlite.GetInfo()
	fmt.Fprintf(rt.stdout, "docbridge version %s\n", version)
	fmt.Fprintf(rt.stdout, "formats: %s\n", strings.Join(docbridge.Names(), ", "))
	fmt.Fprintf(rt.stdout, "image db driver: %s (%s)\n", info.DriverType, info.Package)
	return nil
}
