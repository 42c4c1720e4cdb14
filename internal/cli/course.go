package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func newCourseCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "course",
		Short: "Inspect courses",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <course-id>",
		Short: "Print a course with its sections and lectures in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("course", args[0])
			if err != nil {
				return err
			}
			a, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			c, err := a.Services.Content.GetCourseWithContent(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if e.json {
				return writeJSON(out, c)
			}
			title(out, "%s", c.Course.Name)
			muted(out, "%s · %s · by %s", c.Course.Status, c.Category.Name, c.Instructor.Name)
			line(out, "%d lectures, %s, %d students, rating %.2f (%d)",
				c.LectureCount, c.TotalDuration, c.Course.EnrolledCount, c.Course.AverageRating, c.Course.RatingCount)
			for i, s := range c.Sections {
				line(out, "%d. %s", i+1, s.Section.Name)
				for j, l := range s.SubSections {
					line(out, "    %d.%d %s (%s)", i+1, j+1, l.Title, time.Duration(l.DurationSeconds)*time.Second)
				}
			}
			return nil
		},
	})
	return cmd
}
