package main

import (
	"fmt"
	"time"

	"github.com/jmerrifield20/trustweb/internal/identity"
	"github.com/jmerrifield20/trustweb/internal/reputation/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	tokenKeyPath string
	tokenIssuer  string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token <principal>",
	Short: "Sign a principal token with the server's key (operators only)",
	Long: `token signs an RS256 principal token locally using the server's signing
key. The --issuer must match the server's identity.issuer_url.

  repctl token alice --key /etc/trustweb/signing.key --issuer https://rep.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyPath := tokenKeyPath
		if keyPath == "" {
			keyPath = viper.GetString("key_path")
		}
		if keyPath == "" {
			return fmt.Errorf("--key is required")
		}
		issuer := tokenIssuer
		if issuer == "" {
			issuer = serverURL
		}

		km := identity.NewKeyManager(keyPath)
		if err := km.Load(); err != nil {
			return err
		}
		tok, err := identity.NewTokenIssuer(km.Key(), issuer, tokenTTL).Issue(model.Principal(args[0]))
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenKeyPath, "key", "", "path to the server's PEM signing key")
	tokenCmd.Flags().StringVar(&tokenIssuer, "issuer", "", "token issuer (default: --server)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
}
