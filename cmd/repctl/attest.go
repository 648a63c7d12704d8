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
	attScore   uint64
	attContext string
)

var attestCmd = &cobra.Command{
	Use:   "attest <attestee>",
	Short: "Attest to another registered identity",
	Long: `attest records a scored (1-10) attestation from the caller to attestee.

Each caller may attest to a given identity once; use update-attestation to
change the score or context afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		a, err := c.Attest(context.Background(), args[0], attScore, attContext)
		if err != nil {
			return fmt.Errorf("attest: %w", err)
		}
		return printAttestation(a)
	},
}

var updateAttestationCmd = &cobra.Command{
	Use:   "update-attestation <attestee>",
	Short: "Change the score or context of an existing attestation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		a, err := c.UpdateAttestation(context.Background(), args[0], attScore, attContext)
		if err != nil {
			return fmt.Errorf("update attestation: %w", err)
		}
		return printAttestation(a)
	},
}

var attestationCmd = &cobra.Command{
	Use:   "attestation <attester> <attestee>",
	Short: "Show the attestation from attester to attestee",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		a, err := c.GetAttestation(context.Background(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("get attestation: %w", err)
		}
		return printAttestation(a)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{attestCmd, updateAttestationCmd} {
		cmd.Flags().Uint64Var(&attScore, "score", 0, "score from 1 to 10")
		cmd.Flags().StringVar(&attContext, "context", "", "free-text rationale (at most 100 characters)")
		_ = cmd.MarkFlagRequired("score")
	}
}

func printAttestation(a *client.Attestation) error {
	if outputFormat == "json" {
		return printJSON(a)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Attester:\t%s\n", a.Attester)
	fmt.Fprintf(w, "Attestee:\t%s\n", a.Attestee)
	fmt.Fprintf(w, "Score:\t%d\n", a.Score)
	fmt.Fprintf(w, "Height:\t%d\n", a.Timestamp)
	if a.Context != "" {
		fmt.Fprintf(w, "Context:\t%s\n", a.Context)
	}
	return w.Flush()
}
