package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jmerrifield20/trustweb/pkg/client"
	"github.com/spf13/cobra"
)

var (
	endorseDomain string
	endorseScore  uint64
)

var endorseCmd = &cobra.Command{
	Use:   "endorse <identity>",
	Short: "Endorse an identity's expertise in a domain",
	Long: `endorse adds a 1-10 score to identity's reputation in --domain.

The caller must already have attested to identity. Repeated endorsements
accumulate.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		rep, err := c.Endorse(context.Background(), args[0], endorseDomain, endorseScore)
		if err != nil {
			return fmt.Errorf("endorse: %w", err)
		}
		return printReputation(rep)
	},
}

var reputationCmd = &cobra.Command{
	Use:   "reputation <identity> <domain>",
	Short: "Show an identity's reputation in a domain",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		rep, err := c.GetDomainReputation(context.Background(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("get reputation: %w", err)
		}
		return printReputation(rep)
	},
}

func init() {
	endorseCmd.Flags().StringVar(&endorseDomain, "domain", "", "domain name (at most 20 characters)")
	endorseCmd.Flags().Uint64Var(&endorseScore, "score", 0, "score from 1 to 10")
	_ = endorseCmd.MarkFlagRequired("domain")
	_ = endorseCmd.MarkFlagRequired("score")
}

func printReputation(rep *client.DomainReputation) error {
	if outputFormat == "json" {
		return printJSON(rep)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Identity:\t%s\n", rep.Identity)
	fmt.Fprintf(w, "Domain:\t%s\n", rep.Domain)
	fmt.Fprintf(w, "Score:\t%d\n", rep.Score)
	fmt.Fprintf(w, "Endorsements:\t%d\n", rep.EndorsementCount)
	fmt.Fprintf(w, "Last updated:\t%d\n", rep.LastUpdated)
	return w.Flush()
}
