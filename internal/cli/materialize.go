package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"recurring-planner/internal/recurrence"
)

// MaterializeOptions holds flags for the materialize command.
type MaterializeOptions struct {
	*RootOptions
	Date       string
	TelegramID int64
}

// NewMaterializeCommand creates the materialize command.
func NewMaterializeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MaterializeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "materialize",
		Short: "Spawn due repeating tasks once and exit",
		Long: `Run one materialization pass and print the ids of the spawned tasks.

Without --telegram-id every user is processed. Running it twice for the
same date spawns nothing the second time.

Example:
  planner materialize
  planner materialize --date 2025-01-31 --telegram-id 123456`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaterialize(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Date, "date", "", "reference date YYYY-MM-DD (default today)")
	cmd.Flags().Int64Var(&opts.TelegramID, "telegram-id", 0, "only this user")

	return cmd
}

func runMaterialize(ctx context.Context, opts *MaterializeOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var ref time.Time
	if opts.Date != "" {
		d, err := recurrence.ParseDate(opts.Date)
		if err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", opts.Date)
		}
		ref = d
	}

	a, err := newApp(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if ref.IsZero() {
		ref = a.recurring.Today()
	}
	out := cmd.OutOrStdout()

	if opts.TelegramID == 0 {
		total, err := a.recurring.MaterializeAll(ctx, ref)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: spawned %d task(s)\n", ref.Format(recurrence.DateLayout), total)
		return nil
	}

	user, err := a.store.Users.FindByTelegramID(ctx, opts.TelegramID)
	if err != nil {
		return fmt.Errorf("user %d: %w", opts.TelegramID, err)
	}
	ids, err := a.recurring.MaterializeDue(ctx, user.ID, ref)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: spawned %d task(s)\n", ref.Format(recurrence.DateLayout), len(ids))
	for _, id := range ids {
		fmt.Fprintf(out, "  #%d\n", id)
	}
	return nil
}
