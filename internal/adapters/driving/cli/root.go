// Package cli wires the cobra command surface for the sink. The run
// command is the dispatcher shell: it owns the record stream and hands
// each record to the connector core.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/zoho-inventory-sink/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath  string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "target-zoho-inventory",
	Short: "Write normalized purchase-order records to Zoho Inventory",
	Long: `target-zoho-inventory is a pipeline sink: it reads newline-delimited
record messages on stdin, resolves vendor and item references against
the Zoho Inventory API, and posts each record as a purchase order.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json",
		"path to the credential config document")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
