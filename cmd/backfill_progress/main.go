package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/app"
	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var courses idList
	var dryRun bool
	var limit int
	var metricsFile string
	flag.Var(&courses, "course", "course_id to recompute (repeatable)")
	flag.BoolVar(&dryRun, "dry-run", false, "print courses without writing")
	flag.IntVar(&limit, "limit", 0, "limit number of courses processed")
	flag.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file when done")
	flag.Parse()

	app.LoadDotEnv()
	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()
	application.Start(ctx)

	dbc := dbctx.Of(ctx)

	var rows []*types.Course
	if len(courses) > 0 {
		ids := make([]uuid.UUID, 0, len(courses))
		for _, s := range courses {
			id, err := uuid.Parse(strings.TrimSpace(s))
			if err == nil && id != uuid.Nil {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			fmt.Println("no valid course_id values provided")
			return
		}
		rows, err = application.Repos.Course.GetByIDs(dbc, ids)
	} else {
		rows, err = application.Repos.Course.ListAll(dbc)
	}
	if err != nil {
		fmt.Printf("load courses: %v\n", err)
		os.Exit(1)
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	changed, failed := 0, 0
	for _, c := range rows {
		if c == nil || c.ID == uuid.Nil {
			continue
		}
		if dryRun {
			fmt.Printf("[dry-run] recompute progress course_id=%s (%s)\n", c.ID, c.Name)
			continue
		}
		n, err := application.Aggregates.Progress.RecomputeCourse(ctx, c.ID)
		if err != nil {
			failed++
			fmt.Printf("recompute failed for course %s: %v\n", c.ID, err)
			continue
		}
		changed += n
		if n > 0 {
			fmt.Printf("course_id=%s updated=%d\n", c.ID, n)
		}
	}

	fmt.Printf("done; courses=%d progress_updated=%d failed=%d\n", len(rows), changed, failed)
	if metricsFile != "" {
		if err := application.WriteMetricsFile(metricsFile); err != nil {
			fmt.Printf("metrics: %v\n", err)
		}
	}
	if failed > 0 {
		// os.Exit skips deferred calls.
		application.Close()
		os.Exit(1)
	}
}
