package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the audit chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ov, err := c.LedgerOverview(context.Background())
		if err != nil {
			return fmt.Errorf("ledger overview: %w", err)
		}
		if outputFormat == "json" {
			return printJSON(ov)
		}
		fmt.Printf("Entries: %d\n", ov.Entries)
		fmt.Printf("Root:    %s\n", ov.Root)
		return nil
	},
}

var ledgerVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Ask the server to verify every hash link in the chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		valid, reason, err := c.VerifyLedger(context.Background())
		if err != nil {
			return fmt.Errorf("verify ledger: %w", err)
		}
		if !valid {
			return fmt.Errorf("audit chain is broken: %s", reason)
		}
		fmt.Println("✓ audit chain intact")
		return nil
	},
}

var (
	entriesOffset int
	entriesLimit  int
)

var ledgerEntriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List audit chain entries, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		entries, err := c.ListLedgerEntries(context.Background(), entriesOffset, entriesLimit)
		if err != nil {
			return fmt.Errorf("list entries: %w", err)
		}
		if outputFormat == "json" {
			return printJSON(entries)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "IDX\tACTION\tACTOR\tSUBJECT\tHASH")
		for _, e := range entries {
			hash := e.Hash
			if len(hash) > 12 {
				hash = hash[:12]
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.Index, e.Action, e.Actor, e.Subject, hash)
		}
		return w.Flush()
	},
}

func init() {
	ledgerEntriesCmd.Flags().IntVar(&entriesOffset, "offset", 0, "first entry index")
	ledgerEntriesCmd.Flags().IntVar(&entriesLimit, "limit", 50, "maximum entries to list")

	ledgerCmd.AddCommand(ledgerVerifyCmd)
	ledgerCmd.AddCommand(ledgerEntriesCmd)
}
