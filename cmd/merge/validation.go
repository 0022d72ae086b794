package merge

import (
	"fmt"
	"os"
	"strings"

	"github.com/scan-io-git/scanio-merge/internal/config"
)

// validateMergeArgs validates the arguments provided to the merge command.
func validateMergeArgs(options *RunOptionsMerge, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("only one project directory can be specified, got %d", len(args))
	}

	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if os.IsNotExist(err) {
			return fmt.Errorf("the project directory does not exist: %v", args[0])
		}
		if err != nil {
			return fmt.Errorf("the project directory is not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("the project path is not a directory: %v", args[0])
		}
	}

	if options.Threads < 0 || options.Threads > config.MaxJobs {
		return fmt.Errorf("the 'threads' flag must be between 1 and %d", config.MaxJobs)
	}

	if options.OutputFormat != "" {
		switch strings.ToLower(options.OutputFormat) {
		case config.OutputSARIF, config.OutputJSON:
		default:
			return fmt.Errorf("the 'format' flag must be %q or %q", config.OutputSARIF, config.OutputJSON)
		}
	}

	for _, raw := range options.Sources {
		if _, err := parseSourceFlag(raw); err != nil {
			return err
		}
	}
	return nil
}
