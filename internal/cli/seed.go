package cli

import (
	"github.com/spf13/cobra"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/seed"
)

func newSeedCmd(e *env) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Load a YAML catalog fixture",
		Long: `Load categories, users, courses, enrollments, completions and reviews
from a YAML fixture. Writes go through the same code paths as live traffic and
re-applying a fixture is a no-op.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}
			a, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			if migrate {
				if err := a.Migrate(); err != nil {
					return err
				}
			}
			res, err := a.Services.Seeder.Apply(cmd.Context(), fx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if e.json {
				return writeJSON(out, res)
			}
			success(out, "seeded %s", args[0])
			line(out, "created: %d users, %d categories, %d courses", res.CreatedUsers, res.CreatedCategories, res.CreatedCourses)
			line(out, "new enrollments: %d, new completions: %d, reviews: %d", res.Enrolled, res.Completed, res.Reviewed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Run migrations before seeding")
	return cmd
}
