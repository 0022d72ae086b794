package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/scanio-merge/cmd/merge"
	"github.com/scan-io-git/scanio-merge/cmd/version"
	"github.com/scan-io-git/scanio-merge/internal/config"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "scanio-merge [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Scanio-merge consolidates static-analysis reports into one per-file view.",
		Long: `Scanio-merge reads the reports of several static-analysis tools (style checkers, bug detectors,
	duplication detectors, coverage tools and generic issue lists), resolves every reported path to one
	canonical source file and writes the merged findings as SARIF or as a JSON summary.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to the YAML configuration file.")
	rootCmd.AddCommand(merge.MergeCmd)
	rootCmd.AddCommand(version.NewVersionCmd())
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return 1
	}
	return 0
}

func initConfig() {
	var err error

	AppConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing config file function is crashed - %v \n", err)
		os.Exit(1)
	}

	merge.Init(AppConfig)
}
