package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/decsync/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // scenario filter (glob pattern)
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run multi-app sync scenarios",
		Long: `Run scenario files against an in-memory decsync directory.

Each scenario lets several apps write, sync and dispatch stored entries,
then checks assertions on the final state. The real decsync directory is
never touched.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing directory, bad filter)

Examples:
  decsync test ./scenarios
  decsync test ./scenarios --filter "lww_*"
  decsync test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(scenariosDir); err != nil {
		return out.Fail(ExitCommandError, ErrCodeArguments, fmt.Sprintf("scenarios directory not found: %s", scenariosDir), err)
	}

	result, err := harness.RunDirectory(scenariosDir, opts.Filter)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeArguments, "failed to run scenarios", err)
	}

	if out.IsJSON() {
		if result.Failed > 0 {
			response := CLIResponse{
				Status: "error",
				Data:   result,
				Error: &CLIError{
					Code:    ErrCodeScenario,
					Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
				},
			}
			if err := json.NewEncoder(out.Writer).Encode(response); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "scenarios failed")
		}
		return out.Success(result)
	}

	if result.Total == 0 {
		fmt.Fprintln(out.Writer, "No scenarios found.")
		return nil
	}

	for _, s := range result.Scenarios {
		if s.Pass {
			fmt.Fprintf(out.Writer, "✓ %s\n", s.Name)
			continue
		}
		fmt.Fprintf(out.Writer, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(out.Writer, "    %s\n", e)
		}
	}
	fmt.Fprintf(out.Writer, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, "scenarios failed")
	}
	return nil
}
