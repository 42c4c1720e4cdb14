package cli

import (
	"sort"

	"github.com/spf13/cobra"
)

func newVerifyCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check cached counters and references for drift",
		Long: `Cross-check enrollments, progress and completions against users, courses
and the content tree. Exits with status 1 when anything is inconsistent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			rep, err := a.Services.Verifier.Verify(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if e.json {
				if err := writeJSON(out, rep); err != nil {
					return err
				}
			} else if rep.OK() {
				success(out, "no findings (%d courses, %d enrollments, %d progress records)",
					rep.Counts["courses"], rep.Counts["enrollments"], rep.Counts["progress"])
			} else {
				byKind := rep.ByKind()
				kinds := make([]string, 0, len(byKind))
				for k := range byKind {
					kinds = append(kinds, k)
				}
				sort.Strings(kinds)
				warning(out, "%d findings", len(rep.Findings))
				for _, k := range kinds {
					line(out, "%-30s %d", k, byKind[k])
				}
				for _, f := range rep.Findings {
					muted(out, "  %s %s: %s", f.Kind, f.EntityID, f.Detail)
				}
			}
			if !rep.OK() {
				return ErrFindings
			}
			return nil
		},
	}
}
