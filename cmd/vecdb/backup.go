package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Schromeo/VecDBMVP/backup"
	"github.com/Schromeo/VecDBMVP/persistence"
)

func newBackupCmd() *cobra.Command {
	var (
		dir string
		out string
	)

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive a collection directory into a single compressed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return fmt.Errorf("backup: missing --dir")
			}
			if out == "" {
				return fmt.Errorf("backup: missing --out")
			}
			if !persistence.ManifestExists(dir) {
				return fmt.Errorf("backup: collection not found (manifest.json missing): %s", dir)
			}

			if err := backup.WriteFile(dir, out); err != nil {
				return err
			}
			fmt.Printf("Archived %s to %s\n", dir, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "collection directory")
	cmd.Flags().StringVar(&out, "out", "", "archive file to write")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	var (
		archive string
		dir     string
	)

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore a collection directory from an archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			if archive == "" {
				return fmt.Errorf("restore: missing --archive")
			}
			if dir == "" {
				return fmt.Errorf("restore: missing --dir")
			}

			if err := backup.ReadFile(archive, dir); err != nil {
				return err
			}

			// Sanity-open so a broken archive fails loudly here.
			col, err := openCollection(dir)
			if err != nil {
				return err
			}
			fmt.Printf("Restored %s (slots=%d, index=%t)\n", dir, col.Size(), col.HasIndex())
			return nil
		},
	}

	cmd.Flags().StringVar(&archive, "archive", "", "archive file to read")
	cmd.Flags().StringVar(&dir, "dir", "", "target collection directory")
	return cmd
}
