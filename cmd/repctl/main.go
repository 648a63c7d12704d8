package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jmerrifield20/trustweb/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden via -ldflags "-X main.version=...".
var version = "dev"

var (
	serverURL    string
	cfgFile      string
	bearerToken  string
	principal    string
	outputFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "repctl",
	Short: "Reputation ledger CLI",
	Long: `repctl is the command-line interface for a trustweb reputation ledger.

It registers identities, records and updates attestations, endorses domain
expertise and inspects the audit chain.

Mutating commands authenticate with --token (an RS256 principal token) or,
against a development server, with --principal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.repctl")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.SetEnvPrefix("REPCTL")
		viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server")
		}
		if serverURL == "" {
			serverURL = "http://localhost:8080"
		}
		if bearerToken == "" {
			bearerToken = viper.GetString("token")
		}
		if principal == "" {
			principal = viper.GetString("principal")
		}
		switch outputFormat {
		case "text", "json":
		default:
			return fmt.Errorf("unknown output format %q (want text or json)", outputFormat)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.repctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "reputation server URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&bearerToken, "token", "", "principal token for authenticated calls")
	rootCmd.PersistentFlags().StringVar(&principal, "principal", "", "caller principal for servers running without token auth")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text or json")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(identityCmd)
	rootCmd.AddCommand(attestCmd)
	rootCmd.AddCommand(updateAttestationCmd)
	rootCmd.AddCommand(attestationCmd)
	rootCmd.AddCommand(endorseCmd)
	rootCmd.AddCommand(reputationCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

// newClient builds an SDK client from the global flags.
func newClient() (*client.Client, error) {
	var opts []client.Option
	if bearerToken != "" {
		opts = append(opts, client.WithBearerToken(bearerToken))
	}
	if principal != "" {
		opts = append(opts, client.WithPrincipal(principal))
	}
	return client.New(serverURL, opts...)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the repctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("repctl %s\n", version)
	},
}
