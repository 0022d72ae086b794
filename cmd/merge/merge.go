package merge

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/scanio-merge/internal/config"
	"github.com/scan-io-git/scanio-merge/internal/logger"
)

// RunOptionsMerge holds the arguments for the merge command.
type RunOptionsMerge struct {
	Sources      []string
	OutputPath   string
	OutputFormat string
	Threads      int
}

// Global variables for configuration and command arguments
var (
	AppConfig         *config.Config
	mergeOptions      RunOptionsMerge
	exampleMergeUsage = `  # Merging a style report with the source tree of the current project
  scanio-merge merge --source checkstyle=build/checkstyle-result.xml --source source=src/main/java .

  # Merging several reports into a SARIF file
  scanio-merge merge -s findbugs=build/findbugs.xml -s cpd=build/cpd.xml -o /path/to/results/merged.sarif /path/to/project

  # Merging a generic issues list written in checkstyle layout
  scanio-merge merge -s generic:checkstyle=build/lint.xml /path/to/project

  # Writing the JSON summary to stdout with sources from a configuration file
  scanio-merge merge --config merge.yml --format json

  # Parsing up to 8 reports concurrently
  scanio-merge merge --config merge.yml -j 8 -o /path/to/results`
)

// MergeCmd represents the merge command.
var MergeCmd = &cobra.Command{
	Use:                   "merge [--config/-c PATH] {--source/-s FORMAT[:FLAVOR]=PATH}... [--output/-o PATH] [--format/-f sarif|json] [-j THREADS_NUMBER] [PROJECT_DIR]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleMergeUsage,
	Short:                 "Merges static-analysis reports into one view keyed by source file",
	RunE:                  runMergeCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runMergeCommand executes the merge command.
func runMergeCommand(cmd *cobra.Command, args []string) error {
	if AppConfig == nil {
		AppConfig = &config.Config{}
	}
	if len(args) == 0 && !hasFlags(cmd.Flags()) && len(AppConfig.Sources) == 0 {
		return cmd.Help()
	}

	logger := logger.NewLogger(AppConfig, "core-merge")

	if err := validateMergeArgs(&mergeOptions, args); err != nil {
		logger.Error("invalid merge arguments", "error", err)
		return err
	}

	if err := applyOptions(AppConfig, &mergeOptions, args); err != nil {
		logger.Error("invalid merge arguments", "error", err)
		return err
	}

	if err := config.ValidateConfig(AppConfig); err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := runMerge(ctx, AppConfig, cmd.OutOrStdout(), logger); err != nil {
		logger.Error("merge command failed", "error", err)
		return err
	}

	logger.Info("merge command completed successfully")
	return nil
}

// Initialize flags for the merge command.
func init() {
	MergeCmd.Flags().StringArrayVarP(&mergeOptions.Sources, "source", "s", nil, "Report source as FORMAT[:FLAVOR]=PATH. Repeatable; appended to the sources of the configuration file. A relative PATH is taken under PROJECT_DIR when it is given.")
	MergeCmd.Flags().StringVarP(&mergeOptions.OutputPath, "output", "o", "", "Path to the output file or directory. The result is written to stdout when omitted.")
	MergeCmd.Flags().StringVarP(&mergeOptions.OutputFormat, "format", "f", "", "Output format: sarif (default) or json.")
	MergeCmd.Flags().BoolP("help", "h", false, "Show help for the merge command.")
	MergeCmd.Flags().IntVarP(&mergeOptions.Threads, "threads", "j", 0, "Number of reports parsed concurrently. Defaults to merge.jobs or the number of CPUs.")
}
