package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Schromeo/VecDBMVP/csv"
	"github.com/Schromeo/VecDBMVP/metadata"
)

func newLoadCmd() *cobra.Command {
	var (
		dir       string
		csvPath   string
		hasHeader bool
		withMeta  bool
		build     bool
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load vectors from CSV into an existing collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return fmt.Errorf("load: missing --dir")
			}
			if csvPath == "" {
				return fmt.Errorf("load: missing --csv")
			}

			col, err := openCollection(dir)
			if err != nil {
				return err
			}

			opts := csv.Options{
				HasHeader:     hasHeader,
				HasID:         true, // vectors.csv requires id as first column
				AllowMetadata: withMeta,
			}

			inserted := 0
			err = csv.ForEachRow(csvPath, col.Dim(), opts, func(row csv.Row) (bool, error) {
				if !row.HasID || row.ID == "" {
					return false, fmt.Errorf("load: vectors.csv must contain id as first column: id,f1,...,f_dim")
				}

				var meta metadata.Metadata
				if withMeta {
					if !row.HasMetadata {
						return false, fmt.Errorf("load: --meta enabled but row has no metadata column")
					}
					m, merr := metadata.Decode(row.MetadataRaw)
					if merr != nil {
						return false, fmt.Errorf("load: metadata parse error: %w", merr)
					}
					meta = m
				}

				if _, err := col.UpsertWithMetadata(row.ID, row.Vec, meta); err != nil {
					return false, err
				}
				inserted++
				return true, nil
			})
			if err != nil {
				return fmt.Errorf("load failed: %w", err)
			}

			// Loading invalidated any index; persist store and manifest.
			if err := col.Save(); err != nil {
				return err
			}
			fmt.Printf("Loaded vectors: %d into %s\n", inserted, dir)

			if build {
				col.BuildIndex()
				if err := col.Save(); err != nil {
					return err
				}
				fmt.Println("Index built and saved.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "collection directory")
	cmd.Flags().StringVar(&csvPath, "csv", "", "vectors.csv path (.gz accepted)")
	cmd.Flags().BoolVar(&hasHeader, "header", false, "CSV has a header row")
	cmd.Flags().BoolVar(&withMeta, "meta", false, "CSV has a trailing metadata column (key=value;key2=value2)")
	cmd.Flags().BoolVar(&build, "build", false, "build index after load")
	return cmd
}
