package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize with the remote mirror",
	Long: `Synchronize the local cache with the remote mirror backend.

Example:
  portalctl sync           # Full sync (push pending, then pull)
  portalctl sync --push    # Push pending local writes only`,
	RunE: runSync,
}

var syncPushOnly bool

func init() {
	syncCmd.Flags().BoolVar(&syncPushOnly, "push", false, "Push pending local writes only")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if cfg.RemoteURL == "" {
		return fmt.Errorf("PORTAL_REMOTE_URL not configured")
	}

	portal, err := openPortal()
	if err != nil {
		return fmt.Errorf("initialize portal: %w", err)
	}
	defer portal.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	start := time.Now()

	if syncPushOnly {
		fmt.Println("Pushing pending local writes...")
		if err := portal.PushPending(ctx); err != nil {
			return fmt.Errorf("push: %w", err)
		}
		fmt.Printf("Push complete (took %s)\n", time.Since(start).Round(time.Millisecond))
		return nil
	}

	fmt.Println("Synchronizing with remote mirror...")
	report, err := portal.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	fmt.Printf("Sync complete (took %s)\n", report.Duration.Round(time.Millisecond))
	fmt.Printf("Records pulled: %d\n", report.TotalRecords())
	for _, kind := range report.Failed() {
		fmt.Printf("  %s: pull failed, cached data kept\n", kind)
	}

	stats, err := portal.Stats()
	if err == nil {
		fmt.Printf("Pending mirror writes: %d\n", stats.PendingMirror)
	}

	return nil
}
