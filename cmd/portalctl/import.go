package main

import (
	"fmt"

	"github.com/ladupla/portalsync"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a JSON backup into the local cache",
	Long: `Import a JSON backup, replacing the cached collections it contains.
Imported records are marked pending and propagate to the remote mirror on
the next sync.

Example:
  portalctl import backup.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	portal, err := openPortal()
	if err != nil {
		return fmt.Errorf("initialize portal: %w", err)
	}
	defer portal.Close()

	report, err := portal.ImportFromFile(args[0])
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	fmt.Printf("Imported %d records:\n", report.Total)
	for _, kind := range portalsync.Kinds() {
		if n, ok := report.RecordCounts[kind]; ok {
			fmt.Printf("  %-12s %d\n", kind, n)
		}
	}
	fmt.Println("Run 'portalctl sync --push' to propagate to the remote mirror.")
	return nil
}
