package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jmerrifield20/trustweb/pkg/client"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the calling principal as an identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		rec, err := c.RegisterIdentity(context.Background())
		if err != nil {
			return fmt.Errorf("register identity: %w", err)
		}
		if outputFormat == "json" {
			return printJSON(rec)
		}
		fmt.Printf("✓ Registered %s with id %d\n", rec.Principal, rec.ID)
		return nil
	},
}

var identityCmd = &cobra.Command{
	Use:   "identity <principal>",
	Short: "Show a principal's identity record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		rec, err := c.GetIdentity(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("get identity: %w", err)
		}
		if outputFormat == "json" {
			return printJSON(rec)
		}
		return printIdentity(rec)
	},
}

func printIdentity(rec *client.Identity) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Principal:\t%s\n", rec.Principal)
	fmt.Fprintf(w, "ID:\t%d\n", rec.ID)
	fmt.Fprintf(w, "Registered at:\t%d\n", rec.RegistrationHeight)
	fmt.Fprintf(w, "Score:\t%d\n", rec.VerificationScore)
	fmt.Fprintf(w, "Attestations:\t%d\n", rec.AttestationCount)
	fmt.Fprintf(w, "Verified:\t%t\n", rec.Verified)
	return w.Flush()
}
