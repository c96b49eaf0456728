package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the local cache to a JSON backup",
	Long: `Export every cached collection to a JSON backup file.

Example:
  portalctl export backup.json
  portalctl export -          # Write to stdout`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	portal, err := openPortal()
	if err != nil {
		return fmt.Errorf("initialize portal: %w", err)
	}
	defer portal.Close()

	path := args[0]
	if path == "-" {
		return portal.ExportTo(os.Stdout)
	}

	if err := portal.ExportToFile(path); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Printf("Exported cache to %s\n", path)
	return nil
}
