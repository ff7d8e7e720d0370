package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/claude/liftlog/internal/coordinator"
)

func newStateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the current workout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, app.Backend.WorkoutState)
		},
	}
}

func newStartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a workout over your exercise list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, app.Backend.StartWorkout)
		},
	}
}

func newSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "set",
		Aliases: []string{"done"},
		Short:   "Complete the current set and start resting",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, app.Backend.CompleteSet)
		},
	}
}

func newSkipCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "skip",
		Short: "End the running rest early",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, app.Backend.SkipRest)
		},
	}
}

func newEndCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End the workout early, keeping the elapsed time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, app.Backend.EndWorkout)
		},
	}
}

func newResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the workout and return to idle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, app.Backend.ResetWorkout)
		},
	}
}

func newElapsedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "elapsed DURATION",
		Short: "Set the stopwatch, e.g. 12m30s",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := time.ParseDuration(args[0])
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", args[0], err)
			}
			if d < 0 {
				return fmt.Errorf("duration must not be negative")
			}
			return runView(cmd, func(ctx context.Context) (coordinator.View, error) {
				return app.Backend.UpdateElapsed(ctx, d)
			})
		},
	}
}

func runView(cmd *cobra.Command, fn func(context.Context) (coordinator.View, error)) error {
	v, err := fn(cmd.Context())
	if err != nil {
		return err
	}
	printView(cmd.OutOrStdout(), v)
	return nil
}

func printView(w io.Writer, v coordinator.View) {
	fmt.Fprintf(w, "Status:    %s\n", v.Status)
	if ex := v.CurrentExercise; ex != nil {
		fmt.Fprintf(w, "Exercise:  %s (%d/%d)\n", ex.Name, v.ExerciseIndex+1, len(v.Exercises))
		fmt.Fprintf(w, "Set:       %d/%d x %d reps\n", v.SetIndex+1, ex.Sets, ex.Reps)
	}
	if r := v.Rest; r != nil {
		fmt.Fprintf(w, "Rest:      %s %s\n", r.Phase, r.Display)
	}
	if v.Status != "idle" {
		fmt.Fprintf(w, "Elapsed:   %s\n", v.Elapsed)
	}
}
