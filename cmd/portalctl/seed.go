package main

import (
	"fmt"

	"github.com/ladupla/portalsync"
	"github.com/spf13/cobra"
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create an admin account",
	Long: `Create an admin account in the local cache. The account is mirrored
to the remote backend on the next sync.

Example:
  portalctl seed-admin --email ana@ladupla.co --password s3cret --name "Ana"`,
	RunE: runSeedAdmin,
}

var (
	seedEmail    string
	seedPassword string
	seedName     string
)

func init() {
	seedAdminCmd.Flags().StringVar(&seedEmail, "email", "", "Admin email (required)")
	seedAdminCmd.Flags().StringVar(&seedPassword, "password", "", "Admin password (required)")
	seedAdminCmd.Flags().StringVar(&seedName, "name", "Admin", "Admin display name")
	seedAdminCmd.MarkFlagRequired("email")
	seedAdminCmd.MarkFlagRequired("password")
}

func runSeedAdmin(cmd *cobra.Command, args []string) error {
	portal, err := openPortal()
	if err != nil {
		return fmt.Errorf("initialize portal: %w", err)
	}
	defer portal.Close()

	hash, err := portalsync.HashPassword(seedPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := portal.Users().Save(portalsync.User{
		Email:        seedEmail,
		PasswordHash: hash,
		Name:         seedName,
		Role:         portalsync.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Printf("Created admin %s (%s)\n", user.Email, user.ID)
	return nil
}
