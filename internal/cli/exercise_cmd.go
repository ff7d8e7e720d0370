package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newExercisesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "exercises",
		Aliases: []string{"ex"},
		Short:   "Manage your exercise list",
	}

	cmd.AddCommand(
		newExercisesListCmd(app),
		newExercisesAddCmd(app),
		newExercisesRemoveCmd(app),
	)

	return cmd
}

func newExercisesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List exercises in workout order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := app.Backend.ListExercises(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No exercises yet. Add one with: liftctl exercises add NAME")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSETS\tREPS")
			for _, ex := range list {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", ex.ID, ex.Name, ex.Sets, ex.Reps)
			}
			return tw.Flush()
		},
	}
}

func newExercisesAddCmd(app *App) *cobra.Command {
	var sets, reps int

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add an exercise to the end of the list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := app.Backend.CreateExercise(cmd.Context(), strings.Join(args, " "), sets, reps)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %d x %d (%s)\n", ex.Name, ex.Sets, ex.Reps, ex.ID)
			return nil
		},
	}

	cmd.Flags().IntVar(&sets, "sets", 3, "Number of sets")
	cmd.Flags().IntVar(&reps, "reps", 10, "Reps per set")

	return cmd
}

func newExercisesRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   "Remove an exercise",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Backend.DeleteExercise(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}
