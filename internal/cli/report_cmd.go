package cli

import (
	"github.com/alexanderramin/waypoint/internal/app"
	"github.com/alexanderramin/waypoint/internal/cli/formatter"
	"github.com/alexanderramin/waypoint/internal/contract"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/spf13/cobra"
)

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate course reports",
	}
	cmd.AddCommand(
		newCompletionReportCmd(app),
		newLastPageReportCmd(app),
	)
	return cmd
}

func newCompletionReportCmd(a *App) *cobra.Command {
	var (
		out          outputOptions
		courses      []string
		filter       []string
		emails       []string
		includeStaff bool
		offset       int
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Per-learner completion of each block in the requested courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.NewCompletionReportRequest(courses...)
			for _, t := range filter {
				req.BlockFilter = append(req.BlockFilter, domain.BlockType(t))
			}
			req.Emails = emails
			req.IncludeStaff = includeStaff
			req.Offset = offset
			req.Limit = limit

			resp, err := a.Reports.GenerateCompletionReport(cmd.Context(), req)
			if err != nil {
				return classify(err)
			}

			if out.wantJSON(a) {
				return writeJSON(cmd.OutOrStdout(), contract.NewCompletionReportBody(resp))
			}
			render(cmd, formatter.FormatCompletionReport(resp))
			return nil
		},
	}

	fs := cmd.Flags()
	registerCourseFlag(fs, &courses)
	fs.StringSliceVar(&filter, "filter", nil, "Block types to report (default from settings)")
	fs.StringSliceVar(&emails, "email", nil, "Only report these learners")
	fs.BoolVar(&includeStaff, "include-staff", false, "Include course staff in the report")
	fs.IntVar(&offset, "offset", 0, "Skip this many learners per course")
	fs.IntVar(&limit, "limit", 0, "Learners per course (0 uses the configured page size)")
	out.register(fs)
	_ = cmd.MarkFlagRequired("course")

	return cmd
}

func newLastPageReportCmd(a *App) *cobra.Command {
	var (
		out     outputOptions
		courses []string
	)

	cmd := &cobra.Command{
		Use:   "last-page",
		Short: "Where each learner last stopped, and exit counts per unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.Reports.GenerateLastPageAccessedReport(cmd.Context(), app.LastPageReportRequest{CourseIDs: courses})
			if err != nil {
				return classify(err)
			}

			if out.wantJSON(a) {
				return writeJSON(cmd.OutOrStdout(), contract.NewLastPageReportBody(resp))
			}
			render(cmd, formatter.FormatLastPageReport(resp))
			return nil
		},
	}

	registerCourseFlag(cmd.Flags(), &courses)
	out.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("course")

	return cmd
}
