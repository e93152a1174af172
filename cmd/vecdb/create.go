package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	vecdb "github.com/Schromeo/VecDBMVP"
	"github.com/Schromeo/VecDBMVP/distance"
	"github.com/Schromeo/VecDBMVP/index/hnsw"
	"github.com/Schromeo/VecDBMVP/persistence"
)

// createConfig mirrors the create flags in YAML form. Explicit flags win
// over config values.
type createConfig struct {
	Dim    int    `yaml:"dim"`
	Metric string `yaml:"metric"`
	HNSW   struct {
		M              *int     `yaml:"m"`
		M0             *int     `yaml:"m0"`
		EfConstruction *int     `yaml:"ef_construction"`
		UseDiversity   *bool    `yaml:"use_diversity"`
		Seed           *uint32  `yaml:"seed"`
		LevelMult      *float64 `yaml:"level_mult"`
	} `yaml:"hnsw"`
}

func (c createConfig) apply(cmd *cobra.Command, dim *int, metric *string, params *hnsw.Params) {
	changed := cmd.Flags().Changed

	if c.Dim > 0 && !changed("dim") {
		*dim = c.Dim
	}
	if c.Metric != "" && !changed("metric") {
		*metric = c.Metric
	}
	if c.HNSW.M != nil && !changed("M") {
		params.M = *c.HNSW.M
	}
	if c.HNSW.M0 != nil && !changed("M0") {
		params.M0 = *c.HNSW.M0
	}
	if c.HNSW.EfConstruction != nil && !changed("efC") {
		params.EfConstruction = *c.HNSW.EfConstruction
	}
	if c.HNSW.UseDiversity != nil && !changed("diversity") {
		params.UseDiversity = *c.HNSW.UseDiversity
	}
	if c.HNSW.Seed != nil && !changed("seed") {
		params.Seed = *c.HNSW.Seed
	}
	if c.HNSW.LevelMult != nil && !changed("level_mult") {
		params.LevelMult = *c.HNSW.LevelMult
	}
}

func newCreateCmd() *cobra.Command {
	var (
		dir        string
		dim        int
		metricName string
		configPath string
		params     = hnsw.DefaultParams
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new collection (writes manifest and empty store)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				data, err := os.ReadFile(configPath)
				if err != nil {
					return err
				}
				var cfg createConfig
				if err := yaml.Unmarshal(data, &cfg); err != nil {
					return fmt.Errorf("config %s: %w", configPath, err)
				}
				cfg.apply(cmd, &dim, &metricName, &params)
			}

			if dir == "" {
				return fmt.Errorf("create: missing --dir")
			}
			if dim == 0 {
				return fmt.Errorf("create: missing --dim")
			}
			if persistence.ManifestExists(dir) {
				return fmt.Errorf("create: manifest already exists in dir: %s", dir)
			}

			metric, err := distance.ParseMetric(metricName)
			if err != nil {
				return err
			}

			opts := append(collectionOptions(),
				vecdb.WithMetric(metric),
				vecdb.WithHNSWParams(params),
			)
			col, err := vecdb.Create(dir, dim, opts...)
			if err != nil {
				return err
			}

			fmt.Printf("Created collection at: %s dim=%d metric=%s\n", col.Dir(), col.Dim(), col.Metric())
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "collection directory")
	cmd.Flags().IntVar(&dim, "dim", 0, "vector dimension")
	cmd.Flags().StringVar(&metricName, "metric", "l2", "distance metric (l2|cosine)")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file (explicit flags win)")
	hnswFlags(cmd, &params)
	return cmd
}
