package cli

import (
	"github.com/alexanderramin/waypoint/internal/cli/formatter"
	"github.com/alexanderramin/waypoint/internal/contract"
	"github.com/spf13/cobra"
)

func newOutlineCmd(app *App) *cobra.Command {
	var (
		out    outputOptions
		course string
	)

	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Show a course's block tree with position numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := app.Reports.CourseOutline(cmd.Context(), course)
			if err != nil {
				return classify(err)
			}

			if out.wantJSON(app) {
				return writeJSON(cmd.OutOrStdout(), contract.NewOutlineNode(root))
			}
			render(cmd, formatter.FormatOutline(root))
			return nil
		},
	}

	cmd.Flags().StringVar(&course, "course", "", "Course id")
	out.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("course")

	return cmd
}
