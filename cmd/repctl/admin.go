package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmerrifield20/trustweb/pkg/client"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Inspect or change the ledger configuration",
}

var adminShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the admin principal and verification threshold",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		cfg, err := c.Config(context.Background())
		if err != nil {
			return fmt.Errorf("get config: %w", err)
		}
		return printConfig(cfg)
	},
}

var adminSetOwnerCmd = &cobra.Command{
	Use:   "set-owner <principal>",
	Short: "Transfer the admin role (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		cfg, err := c.SetAdmin(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("set admin: %w", err)
		}
		return printConfig(cfg)
	},
}

var adminSetThresholdCmd = &cobra.Command{
	Use:   "set-threshold <n>",
	Short: "Change the verification threshold (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("threshold must be a non-negative integer: %w", err)
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		cfg, err := c.SetVerificationThreshold(context.Background(), n)
		if err != nil {
			return fmt.Errorf("set threshold: %w", err)
		}
		return printConfig(cfg)
	},
}

func init() {
	adminCmd.AddCommand(adminShowCmd)
	adminCmd.AddCommand(adminSetOwnerCmd)
	adminCmd.AddCommand(adminSetThresholdCmd)
}

func printConfig(cfg *client.AdminConfig) error {
	if outputFormat == "json" {
		return printJSON(cfg)
	}
	fmt.Printf("Admin:      %s\n", cfg.Admin)
	fmt.Printf("Threshold:  %d\n", cfg.VerificationThreshold)
	fmt.Printf("Next ID:    %d\n", cfg.NextIdentityID)
	return nil
}
