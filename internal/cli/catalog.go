package cli

import (
	"github.com/spf13/cobra"

	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
)

func newCatalogCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse categories and published courses",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := a.Services.Catalog.ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if e.json {
				return writeJSON(out, rows)
			}
			for _, c := range rows {
				line(out, "%s  %s", c.ID, c.Name)
			}
			return nil
		},
	})

	var limit, offset int
	var category string
	list := &cobra.Command{
		Use:   "list",
		Short: "List published courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = a.Cfg.DefaultPageLen
			}
			var rows []*types.Course
			if category != "" {
				id, perr := parseID("category", category)
				if perr != nil {
					return perr
				}
				rows, err = a.Services.Catalog.ListByCategory(cmd.Context(), id)
			} else {
				rows, err = a.Services.Catalog.ListPublished(cmd.Context(), limit, offset)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if e.json {
				return writeJSON(out, rows)
			}
			for _, c := range rows {
				line(out, "%s  %-40s students=%-4d rating=%.2f", c.ID, c.Name, c.EnrolledCount, c.AverageRating)
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "Page size (default CATALOG_PAGE_SIZE)")
	list.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	list.Flags().StringVar(&category, "category", "", "Only courses in this category id")
	cmd.AddCommand(list)
	return cmd
}
