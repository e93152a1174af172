package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print collection info",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return fmt.Errorf("stats: missing --dir")
			}

			col, err := openCollection(dir)
			if err != nil {
				return err
			}

			st := col.Stats()
			fmt.Printf("Collection dir: %s\n", st.Dir)
			fmt.Printf("dim: %d\n", st.Dim)
			fmt.Printf("metric: %s\n", strings.ToLower(st.Metric.String()))
			fmt.Printf("size(slots): %d\n", st.Size)
			fmt.Printf("alive: %d\n", st.AliveCount)
			fmt.Printf("has_index: %t\n", st.HasIndex)
			if st.HasIndex {
				fmt.Printf("graph: nodes=%d edges=%d max_level=%d\n",
					st.Graph.Nodes, st.Graph.Edges, st.Graph.MaxLevel)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "collection directory")
	return cmd
}
