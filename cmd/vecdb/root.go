package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	vecdb "github.com/Schromeo/VecDBMVP"
	"github.com/Schromeo/VecDBMVP/index/hnsw"
	"github.com/Schromeo/VecDBMVP/persistence"
)

var verbose bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vecdb",
		Short: "Embeddable vector search engine",
		Long: `vecdb stores (id, vector, metadata) records in a collection directory,
builds an HNSW index over them, and answers approximate top-k queries
under L2 or cosine distance.

CSV formats:
  vectors.csv: id,f1,f2,...,f_dim
  queries.csv: f1,f2,...,f_dim   or   id,f1,...,f_dim`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	root.AddCommand(
		newCreateCmd(),
		newLoadCmd(),
		newBuildCmd(),
		newSearchCmd(),
		newStatsCmd(),
		newDemoCmd(),
		newBackupCmd(),
		newRestoreCmd(),
	)
	return root
}

func collectionOptions() []vecdb.Option {
	if verbose {
		return []vecdb.Option{vecdb.WithLogLevel(slog.LevelDebug)}
	}
	return nil
}

// openCollection surfaces a missing manifest as a distinct message before
// invoking Open.
func openCollection(dir string) (*vecdb.Collection, error) {
	if !persistence.ManifestExists(dir) {
		return nil, fmt.Errorf("collection not found (manifest.json missing): %s", dir)
	}
	return vecdb.Open(dir, collectionOptions()...)
}

// hnswFlags registers the shared index parameter flags.
func hnswFlags(cmd *cobra.Command, p *hnsw.Params) {
	cmd.Flags().IntVar(&p.M, "M", p.M, "HNSW degree cap on upper layers")
	cmd.Flags().IntVar(&p.M0, "M0", p.M0, "HNSW degree cap on layer 0")
	cmd.Flags().IntVar(&p.EfConstruction, "efC", p.EfConstruction, "HNSW construction beam size")
	cmd.Flags().BoolVar(&p.UseDiversity, "diversity", p.UseDiversity, "neighbor diversity heuristic")
	cmd.Flags().Uint32Var(&p.Seed, "seed", p.Seed, "level RNG seed")
	cmd.Flags().Float64Var(&p.LevelMult, "level_mult", p.LevelMult, "level multiplier")
}
