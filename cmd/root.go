package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "oddsctl",
	Short: "Run and supervise prediction-market trading services",
	Long: `oddsctl hosts the long-running workers of a prediction-market
trading stack (market-data pollers, streaming clients, sports feeds)
under a service supervisor that keeps them health-checked,
auto-restarted, and cleanly shut down.`,
	// SilenceUsage is set to true to prevent printing usage message on
	// errors handled by us (e.g. invalid environment, bad config)
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "oddsctl version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newVersionCmd())
}
