package main

import (
	"fmt"

	"github.com/ladupla/portalsync"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show local cache statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	portal, err := openPortal()
	if err != nil {
		return fmt.Errorf("initialize portal: %w", err)
	}
	defer portal.Close()

	stats, err := portal.Stats()
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	fmt.Println("Local cache:")
	for _, kind := range portalsync.Kinds() {
		fmt.Printf("  %-12s %d\n", kind, stats.RecordCounts[kind])
	}
	fmt.Printf("Pending mirror writes: %d\n", stats.PendingMirror)
	fmt.Printf("Schema version: %s\n", stats.SchemaVersion)
	if !stats.LastSync.IsZero() {
		fmt.Printf("Last sync: %s\n", stats.LastSync.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("Last sync: never")
	}

	return nil
}
