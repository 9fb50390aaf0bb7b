// Package cli is the zenstory terminal surface: cobra commands over the
// same services the web UI uses.
package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/cli/formatter"
	"github.com/alexanderramin/zenstory/internal/config"
	"github.com/alexanderramin/zenstory/internal/fetch"
	"github.com/alexanderramin/zenstory/internal/geo"
	"github.com/alexanderramin/zenstory/internal/logging"
	"github.com/alexanderramin/zenstory/internal/mcp"
	"github.com/alexanderramin/zenstory/internal/render"
	"github.com/alexanderramin/zenstory/internal/service"
)

// App holds everything the commands need.
type App struct {
	Config   *config.Config
	Catalog  *catalog.Catalog
	Log      *logging.Logger
	Resolver *geo.Resolver
	Locator  service.Locator
	Selector service.ObjectSelector
	Renderer *render.Renderer
	Tonight  service.TonightService
	Library  service.LibraryService
	Canvases service.CanvasService
	MCP      *mcp.Server
	// Cache is the upstream fetch cache, inspectable while serving.
	Cache   *fetch.Cache
	Version string

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool
	// Width is the terminal width, or 0 when unknown.
	Width func() int
	Now   func() time.Time
}

func (a *App) interactive() bool { return a.IsInteractive != nil && a.IsInteractive() }

func (a *App) width() int {
	if a.Width != nil {
		if w := a.Width(); w > 0 {
			return w
		}
	}
	return formatter.DefaultWidth
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// renderOptions styles output for a terminal, or plainly for pipes.
func (a *App) renderOptions() formatter.Options {
	if a.interactive() {
		return formatter.Options{Width: a.width()}
	}
	return formatter.PlainOptions(a.width())
}

// NewRootCmd creates the top-level "zenstory" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "zenstory",
		Short:         "Astronomical bedtime stories for the sky above you tonight",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if app.Log != nil {
				app.Log.Debug("command", zap.String("name", cmd.CommandPath()), zap.Strings("flags", changedFlags(cmd.Flags())))
			}
		},
	}

	root.AddCommand(
		newTonightCmd(app),
		newSelectCmd(app),
		newLocateCmd(app),
		newCitiesCmd(app),
		newSavedCmd(app),
		newCanvasCmd(app),
		newShareCmd(app),
		newDictCmd(app),
		newAboutCmd(app),
		newServeCmd(app),
		newMCPCmd(app),
	)

	return root
}

// changedFlags lists the flags set on the command line as name=value.
func changedFlags(fs *pflag.FlagSet) []string {
	var out []string
	fs.Visit(func(f *pflag.Flag) {
		out = append(out, f.Name+"="+f.Value.String())
	})
	return out
}
