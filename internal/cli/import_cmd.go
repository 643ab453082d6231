package cli

import (
	"github.com/alexanderramin/waypoint/internal/cli/formatter"
	"github.com/alexanderramin/waypoint/internal/contract"
	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	var out outputOptions

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a course fixture from a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Import.ImportCourse(cmd.Context(), args[0])
			if err != nil {
				return WrapExit(ExitInvalidInput, "import failed", err)
			}

			if out.wantJSON(app) {
				return writeJSON(cmd.OutOrStdout(), contract.NewImportSummary(result))
			}
			render(cmd, formatter.FormatImportResult(result)+"\n")
			return nil
		},
	}

	out.register(cmd.Flags())
	return cmd
}
