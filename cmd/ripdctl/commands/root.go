// Package commands implements the ripdctl CLI commands.
package commands

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// client is the HTTP client used for every admin-surface request,
	// initialized in PersistentPreRunE.
	client *http.Client

	// outputFormat controls the output format for all commands (table or json).
	outputFormat string

	// serverAddr is the daemon's admin surface address (host:port).
	serverAddr string
)

// rootCmd is the top-level cobra command for ripdctl.
var rootCmd = &cobra.Command{
	Use:   "ripdctl",
	Short: "CLI client for the ripd daemon",
	Long:  "ripdctl communicates with the ripd daemon's JSON admin surface to inspect routes and liveness.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		client = &http.Client{Timeout: 5 * time.Second}
		return nil
	},
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "localhost:8080",
		"ripd daemon admin address (host:port)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table",
		"output format: table, json")

	rootCmd.AddCommand(routesCmd())
	rootCmd.AddCommand(healthCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// adminURL builds the full URL for one admin-surface path given the
// configured --addr.
func adminURL(path string) string {
	return "http://" + serverAddr + path
}
