package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Schromeo/VecDBMVP/distance"
	"github.com/Schromeo/VecDBMVP/index/hnsw"
)

func newBuildCmd() *cobra.Command {
	var (
		dir        string
		metricName string
		params     = hnsw.DefaultParams
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the HNSW index and persist it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return fmt.Errorf("build: missing --dir")
			}

			col, err := openCollection(dir)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("metric") {
				metric, err := distance.ParseMetric(metricName)
				if err != nil {
					return err
				}
				col.SetMetric(metric)
			}

			// Any explicit index flag overrides the manifest parameters.
			override := false
			for _, name := range []string{"M", "M0", "efC", "diversity", "seed", "level_mult"} {
				if cmd.Flags().Changed(name) {
					override = true
					break
				}
			}
			if override {
				merged := col.HNSWParams()
				flags := cmd.Flags()
				if flags.Changed("M") {
					merged.M = params.M
				}
				if flags.Changed("M0") {
					merged.M0 = params.M0
				}
				if flags.Changed("efC") {
					merged.EfConstruction = params.EfConstruction
				}
				if flags.Changed("diversity") {
					merged.UseDiversity = params.UseDiversity
				}
				if flags.Changed("seed") {
					merged.Seed = params.Seed
				}
				if flags.Changed("level_mult") {
					merged.LevelMult = params.LevelMult
				}
				col.SetHNSWParams(merged)
			}

			fmt.Printf("Building index for dir=%s (alive=%d)\n", dir, col.AliveCount())
			col.BuildIndex()
			if err := col.Save(); err != nil {
				return err
			}
			fmt.Println("Index built and saved.")
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "collection directory")
	cmd.Flags().StringVar(&metricName, "metric", "l2", "override metric (l2|cosine)")
	hnswFlags(cmd, &params)
	return cmd
}
