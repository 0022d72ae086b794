package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// MaxJobs bounds the number of reports parsed at once.
const MaxJobs = 64

// DefaultJobs is used when merge.jobs is not set.
var DefaultJobs = runtime.NumCPU()

// ValidateConfig checks the configuration and fills defaults in place.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML config: configuration object is nil")
	}
	if err := ValidateProjectConfig(&cfg.Project); err != nil {
		return fmt.Errorf("YAML config: project directive is invalid: %w", err)
	}
	if err := validateCatalogDir(cfg.CatalogDir); err != nil {
		return fmt.Errorf("YAML config: catalog_dir directive is invalid: %w", err)
	}
	if err := ValidateMergeConfig(&cfg.Merge); err != nil {
		return fmt.Errorf("YAML config: merge directive is invalid: %w", err)
	}
	if err := ValidateSources(cfg.Sources); err != nil {
		return fmt.Errorf("YAML config: sources directive is invalid: %w", err)
	}
	if err := ValidateOutputConfig(&cfg.Output); err != nil {
		return fmt.Errorf("YAML config: output directive is invalid: %w", err)
	}
	return nil
}

// ValidateProjectConfig checks the project section and defaults the base directory.
func ValidateProjectConfig(project *Project) error {
	if project == nil {
		return fmt.Errorf("project configuration is nil")
	}

	project.BaseDir = SetThen(project.BaseDir, ".")
	info, err := os.Stat(project.BaseDir)
	if err != nil {
		return fmt.Errorf("base_dir '%s' is not accessible: %w", project.BaseDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("base_dir '%s' is not a directory", project.BaseDir)
	}

	for _, root := range project.SourceRoots {
		if strings.TrimSpace(root) == "" {
			return fmt.Errorf("source_roots must not contain empty entries")
		}
		if filepath.IsAbs(root) {
			return fmt.Errorf("source root '%s' must be relative", root)
		}
	}
	if strings.ContainsAny(project.PackageDoc, `/\`) {
		return fmt.Errorf("package_doc '%s' must be a file name", project.PackageDoc)
	}
	return nil
}

// ValidateMergeConfig checks the merge section and defaults the number of jobs.
func ValidateMergeConfig(merge *Merge) error {
	if merge == nil {
		return fmt.Errorf("merge configuration is nil")
	}
	if merge.Jobs < 0 || merge.Jobs > MaxJobs {
		return fmt.Errorf("jobs must be between 0 and %d: %d", MaxJobs, merge.Jobs)
	}
	merge.Jobs = SetThen(merge.Jobs, DefaultJobs)
	return nil
}

// ValidateSources checks that every source names a path and a format.
// Format tags themselves are checked when readers are built.
func ValidateSources(sources []Source) error {
	for i, src := range sources {
		if strings.TrimSpace(src.Path) == "" {
			return fmt.Errorf("source #%d has no path", i+1)
		}
		if strings.TrimSpace(src.Format) == "" {
			return fmt.Errorf("source #%d (%s) has no format", i+1, src.Path)
		}
	}
	return nil
}

// ValidateOutputConfig checks the output section and defaults its format.
func ValidateOutputConfig(output *Output) error {
	if output == nil {
		return fmt.Errorf("output configuration is nil")
	}

	output.Format = strings.ToLower(SetThen(strings.TrimSpace(output.Format), OutputSARIF))
	switch output.Format {
	case OutputSARIF, OutputJSON:
	default:
		return fmt.Errorf("unsupported output format '%s', use '%s' or '%s'", output.Format, OutputSARIF, OutputJSON)
	}
	return nil
}

func validateCatalogDir(dir string) error {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("'%s' is not accessible: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("'%s' is not a directory", dir)
	}
	return nil
}
