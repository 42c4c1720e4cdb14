package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/seed"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/services"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/verify"
)

func sqliteEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LOG_MODE", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "lms.db"))
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("OTEL_ENABLED", "false")
}

func run(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	out := &bytes.Buffer{}
	err := Run(context.Background(), Options{Out: out}, append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	return out, err
}

func decode[T any](t *testing.T, buf *bytes.Buffer) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(buf.Bytes(), &v), buf.String())
	return v
}

func TestCLI_SeedThenInspect(t *testing.T) {
	sqliteEnv(t)

	_, err := run(t, "migrate")
	require.NoError(t, err)

	out, err := run(t, "--json", "seed", "../seed/testdata/catalog.yaml")
	require.NoError(t, err)
	res := decode[seed.Result](t, out)
	require.Equal(t, 2, res.CreatedCourses)

	out, err = run(t, "--json", "verify")
	require.NoError(t, err)
	rep := decode[verify.Report](t, out)
	require.Empty(t, rep.Findings)

	out, err = run(t, "--json", "course", "show", res.Courses["sql"].String())
	require.NoError(t, err)
	content := decode[services.CourseContent](t, out)
	require.Equal(t, "SQL from Scratch", content.Course.Name)
	require.Equal(t, 3, content.LectureCount)
	require.Len(t, content.Sections, 2)
	require.Equal(t, "Basics", content.Sections[0].Section.Name)

	out, err = run(t, "--json", "dashboard", "student", res.Users["ada"].String())
	require.NoError(t, err)
	student := decode[services.StudentDashboard](t, out)
	require.Len(t, student.Courses, 1)
	require.Equal(t, 67, student.Courses[0].Percentage)

	out, err = run(t, "--json", "dashboard", "instructor", res.Users["grace"].String())
	require.NoError(t, err)
	inst := decode[services.InstructorDashboard](t, out)
	require.Equal(t, 2, inst.TotalEnrollments)

	out, err = run(t, "--json", "catalog", "list")
	require.NoError(t, err)
	var listed []struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &listed))
	require.Len(t, listed, 1, "drafts stay out of the catalog")

	out, err = run(t, "dashboard", "student", res.Users["ada"].String())
	require.NoError(t, err)
	require.Contains(t, out.String(), "SQL from Scratch")
}

func TestCLI_VerifyFailsOnFindings(t *testing.T) {
	sqliteEnv(t)

	_, err := run(t, "--json", "seed", "--migrate", "../seed/testdata/catalog.yaml")
	require.NoError(t, err)

	_, e := newRootCmd(Options{Out: &bytes.Buffer{}})
	a, err := e.open(context.Background())
	require.NoError(t, err)
	require.NoError(t, a.DB.Exec("UPDATE course SET enrolled_count = enrolled_count + 3").Error)
	e.close()

	out, err := run(t, "verify")
	require.ErrorIs(t, err, ErrFindings)
	require.Contains(t, out.String(), verify.KindEnrolledCountMismatch)
}

func TestCLI_RejectsBadIDs(t *testing.T) {
	sqliteEnv(t)

	_, err := run(t, "course", "show", "not-a-uuid")
	require.ErrorContains(t, err, "invalid course id")

	_, err = run(t, "dashboard", "student")
	require.Error(t, err)
}

func TestCLI_MetricsFile(t *testing.T) {
	sqliteEnv(t)
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("METRICS_ADDR", "127.0.0.1:0")
	dump := filepath.Join(t.TempDir(), "lms.prom")

	_, err := run(t, "migrate")
	require.NoError(t, err)
	_, err = run(t, "--metrics-file", dump, "seed", "../seed/testdata/catalog.yaml")
	require.NoError(t, err)

	raw, err := os.ReadFile(dump)
	require.NoError(t, err)
	text := string(raw)
	require.Contains(t, text, `lms_enrollment_changes_total{result="enrolled"}`)
	require.Contains(t, text, "lms_aggregate_operations_total")
}

func TestCLI_MetricsFileNeedsMetrics(t *testing.T) {
	sqliteEnv(t)
	dump := filepath.Join(t.TempDir(), "lms.prom")

	_, err := run(t, "--metrics-file", dump, "migrate")
	require.ErrorContains(t, err, "METRICS_ENABLED")
	require.NoFileExists(t, dump)
}
