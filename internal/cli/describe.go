package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"recurring-planner/internal/service"
)

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <rule>",
		Short: "Print a rule as a human-readable phrase",
		Long: `Parse a repeating rule and print its description.

The rule is either JSON or the short text form:
  planner describe weekly 2 mon,fri
  planner describe '{"frequency":"monthly","interval":1,"dayOfMonth":15}'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := service.DescribeRule(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), desc)
			return nil
		},
	}
}
