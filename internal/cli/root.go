package cli

import (
	"os"

	"github.com/alexanderramin/waypoint/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// App holds references to the services used by CLI commands.
type App struct {
	Reports service.ReportService
	Import  service.ImportService

	// HTTPAddr is the default listen address for serve.
	HTTPAddr string

	// IsTTY reports whether stdout is a terminal. Nil means detect it.
	IsTTY func() bool
}

func (a *App) terminal() bool {
	if a.IsTTY != nil {
		return a.IsTTY()
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NewRootCmd creates the top-level "waypoint" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "waypoint",
		Short:         "Course completion and learner progress reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newImportCmd(app),
		newReportCmd(app),
		newOutlineCmd(app),
		newServeCmd(app),
	)

	return root
}
