package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// outputOptions selects between styled tables and JSON.
type outputOptions struct {
	json bool
}

func (o *outputOptions) register(fs *pflag.FlagSet) {
	fs.BoolVar(&o.json, "json", false, "Print JSON instead of tables (default when stdout is not a terminal)")
}

func (o *outputOptions) wantJSON(app *App) bool {
	return o.json || !app.terminal()
}

func registerCourseFlag(fs *pflag.FlagSet, courses *[]string) {
	fs.StringArrayVar(courses, "course", nil, "Course id (repeatable)")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

func render(cmd *cobra.Command, out string) {
	fmt.Fprint(cmd.OutOrStdout(), out)
}
