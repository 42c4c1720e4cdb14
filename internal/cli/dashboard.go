package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q", kind, raw)
	}
	return id, nil
}

func newDashboardCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show an instructor or student dashboard",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "instructor <instructor-id>",
		Short: "Courses, enrollments and revenue of an instructor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("instructor", args[0])
			if err != nil {
				return err
			}
			a, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			d, err := a.Services.Dashboard.InstructorDashboard(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if e.json {
				return writeJSON(out, d)
			}
			title(out, "%d courses, %d enrollments, revenue %d", d.CourseCount, d.TotalEnrollments, d.TotalRevenue)
			for _, c := range d.Courses {
				line(out, "%-40s %-9s students=%-4d rating=%.2f (%d) revenue=%d",
					c.Name, c.Status, c.EnrolledCount, c.AverageRating, c.RatingCount, c.Revenue)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "student <user-id>",
		Short: "Enrolled courses of a student, most recently accessed first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			a, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			d, err := a.Services.Dashboard.StudentDashboard(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if e.json {
				return writeJSON(out, d)
			}
			title(out, "%d enrolled courses", len(d.Courses))
			for _, c := range d.Courses {
				line(out, "%-40s %3d%% (%d/%d lectures, %s) last access %s",
					c.Name, c.Percentage, c.CompletedCount, c.LectureCount, c.TotalDuration, formatAccess(c.LastAccessedAt))
			}
			return nil
		},
	})
	return cmd
}
