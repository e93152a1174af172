package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	vecdb "github.com/Schromeo/VecDBMVP"
	"github.com/Schromeo/VecDBMVP/csv"
	"github.com/Schromeo/VecDBMVP/metadata"
)

func printVec(v []float32) string {
	const maxElems = 8
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < len(v) && i < maxElems; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%.6f", v[i])
	}
	if len(v) > maxElems {
		sb.WriteString(", ...")
	}
	sb.WriteByte(']')
	return sb.String()
}

func printResults(res []vecdb.SearchResult) {
	fmt.Printf("Top%d:\n", len(res))
	for _, r := range res {
		fmt.Printf("  index=%d id=%s dist=%.6f\n", r.Slot, r.ID, r.Distance)
	}
}

func newSearchCmd() *cobra.Command {
	var (
		dir       string
		queryLine string
		queryCSV  string
		k         int
		ef        int
		limit     int
		filterKV  string
		hasHeader bool
		forceID   bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search topK for a query line or a query CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return fmt.Errorf("search: missing --dir")
			}
			if queryLine == "" && queryCSV == "" {
				return fmt.Errorf("search: missing --query or --query_csv")
			}

			var filter metadata.Filter
			if filterKV != "" {
				f, err := metadata.ParseFilter(filterKV)
				if err != nil {
					return fmt.Errorf("search: %w", err)
				}
				filter = f
			}

			col, err := openCollection(dir)
			if err != nil {
				return err
			}
			if !col.HasIndex() && filter.IsEmpty() {
				return fmt.Errorf("search: index not found. Run: vecdb build --dir %s", dir)
			}

			runQuery := func(q []float32) error {
				var res []vecdb.SearchResult
				var err error
				if filter.IsEmpty() {
					res, err = col.Search(q, k, ef)
				} else {
					res, err = col.SearchWithFilter(q, k, ef, filter)
				}
				if err != nil {
					return err
				}
				printResults(res)
				return nil
			}

			if queryLine != "" {
				row, err := csv.ParseLine(queryLine, col.Dim(), csv.Options{HasID: forceID, InferID: !forceID})
				if err != nil || len(row.Vec) != col.Dim() {
					return fmt.Errorf("search: failed to parse --query, expect: f1,f2,...,f_dim")
				}
				fmt.Printf("Query=%s\n", printVec(row.Vec))
				return runQuery(row.Vec)
			}

			count := 0
			err = csv.ForEachRow(queryCSV, col.Dim(), csv.Options{
				HasHeader: hasHeader,
				HasID:     forceID,
				InferID:   !forceID,
			}, func(row csv.Row) (bool, error) {
				if limit >= 0 && count >= limit {
					return false, nil
				}

				fmt.Printf("\nQuery#%d", count)
				if row.HasID {
					fmt.Printf(" id=%s", row.ID)
				}
				fmt.Printf(" q=%s\n", printVec(row.Vec))

				if err := runQuery(row.Vec); err != nil {
					return false, err
				}
				count++
				return true, nil
			})
			if err != nil {
				return fmt.Errorf("search query_csv failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "collection directory")
	cmd.Flags().StringVar(&queryLine, "query", "", `single query line: "f1,f2,...,f_dim"`)
	cmd.Flags().StringVar(&queryCSV, "query_csv", "", "query CSV file (.gz accepted)")
	cmd.Flags().IntVar(&k, "k", 10, "topK")
	cmd.Flags().IntVar(&ef, "ef", 50, "ef_search beam size")
	cmd.Flags().IntVar(&limit, "limit", -1, "for query_csv, limit number of queries")
	cmd.Flags().StringVar(&filterKV, "filter", "", "filter by metadata key=value (exact scan)")
	cmd.Flags().BoolVar(&hasHeader, "header", false, "query CSV has a header row")
	cmd.Flags().BoolVar(&forceID, "has-id", false, "first CSV column is id, even if numeric")
	return cmd
}
