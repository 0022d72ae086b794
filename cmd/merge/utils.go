package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/pflag"

	"github.com/scan-io-git/scanio-merge/cmd/version"
	"github.com/scan-io-git/scanio-merge/internal/catalog"
	"github.com/scan-io-git/scanio-merge/internal/config"
	"github.com/scan-io-git/scanio-merge/internal/findings"
	"github.com/scan-io-git/scanio-merge/internal/git"
	"github.com/scan-io-git/scanio-merge/internal/merger"
	"github.com/scan-io-git/scanio-merge/internal/readers"
	"github.com/scan-io-git/scanio-merge/internal/sarif"
	"github.com/scan-io-git/scanio-merge/pkg/shared/files"
)

// Default output file names used when --output points at a directory.
const (
	defaultSARIFName = "scanio-merge.sarif"
	defaultJSONName  = "scanio-merge.json"
)

// hasFlags reports whether any flag was set on the command line.
func hasFlags(flags *pflag.FlagSet) bool {
	changed := false
	flags.Visit(func(*pflag.Flag) {
		changed = true
	})
	return changed
}

// parseSourceFlag parses FORMAT[:FLAVOR]=PATH.
func parseSourceFlag(raw string) (config.Source, error) {
	tag, path, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(tag) == "" || strings.TrimSpace(path) == "" {
		return config.Source{}, fmt.Errorf("invalid source %q, expected FORMAT[:FLAVOR]=PATH", raw)
	}

	format, flavor, _ := strings.Cut(tag, ":")
	if _, err := readers.ParseFormat(format); err != nil {
		return config.Source{}, fmt.Errorf("invalid source %q: %w", raw, err)
	}
	return config.Source{
		Path:   strings.TrimSpace(path),
		Format: strings.TrimSpace(format),
		Flavor: strings.TrimSpace(flavor),
	}, nil
}

// applyOptions overrides the configuration with the command line.
// Relative --source paths are taken under the project directory argument, when given.
func applyOptions(cfg *config.Config, options *RunOptionsMerge, args []string) error {
	if len(args) == 1 {
		cfg.Project.BaseDir = args[0]
	}
	for _, raw := range options.Sources {
		src, err := parseSourceFlag(raw)
		if err != nil {
			return err
		}
		if len(args) == 1 && !filepath.IsAbs(src.Path) {
			src.Path = filepath.Join(args[0], src.Path)
		}
		cfg.Sources = append(cfg.Sources, src)
	}
	if options.OutputPath != "" {
		cfg.Output.Path = options.OutputPath
	}
	if options.OutputFormat != "" {
		cfg.Output.Format = strings.ToLower(options.OutputFormat)
	}
	if options.Threads > 0 {
		cfg.Merge.Jobs = options.Threads
	}
	return nil
}

// toReaderSources converts configured sources into reader sources.
func toReaderSources(sources []config.Source) []readers.Source {
	out := make([]readers.Source, 0, len(sources))
	for _, s := range sources {
		out = append(out, readers.Source{Path: s.Path, Format: s.Format, Flavor: s.Flavor})
	}
	return out
}

// runMerge merges the configured sources and writes the result to the configured output,
// or to stdout when no output path is set. cfg must already be validated.
func runMerge(ctx context.Context, cfg *config.Config, stdout io.Writer, logger hclog.Logger) error {
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("no sources to merge, use --source or the sources directive")
	}

	catalogs := catalog.NewStore(cfg.CatalogDir)
	factory, err := readers.NewFactory(readers.Deps{
		Catalogs:   catalogs,
		Logger:     logger.Named("readers"),
		BaseDir:    cfg.Project.BaseDir,
		SourceDirs: cfg.Project.SourceDirs,
		Walk: readers.WalkOptions{
			SourceRoots: cfg.Project.SourceRoots,
			PackageDoc:  cfg.Project.PackageDoc,
			Exclude:     cfg.Project.Exclude,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to prepare readers: %w", err)
	}

	result, err := merger.New(factory, cfg.Merge.Jobs, logger.Named("merger")).Run(ctx, toReaderSources(cfg.Sources))
	if err != nil {
		return err
	}
	for _, l := range result.Launches {
		logger.Debug("source merged", "source", l.Source.String(), "status", l.Status, "resources", l.Resources, "duration", l.Duration)
	}

	data, err := render(cfg, factory.BaseDir(), result.Aggregate, catalogs, logger)
	if err != nil {
		return err
	}

	if cfg.Output.Path == "" {
		_, err := stdout.Write(data)
		return err
	}

	name := defaultSARIFName
	if cfg.Output.Format == config.OutputJSON {
		name = defaultJSONName
	}
	outputFile, folder, err := files.DetermineFileFullPath(cfg.Output.Path, name)
	if err != nil {
		return err
	}
	if err := files.CreateFolderIfNotExists(folder); err != nil {
		return err
	}
	if err := files.WriteFile(outputFile, data); err != nil {
		return fmt.Errorf("failed to write %q: %w", outputFile, err)
	}

	logger.Info("merged result written", "path", outputFile, "format", cfg.Output.Format,
		"resources", result.Aggregate.Len(), "findings", result.Aggregate.Total())
	return nil
}

// render serializes the aggregate in the configured output format.
func render(cfg *config.Config, baseDir string, agg *findings.Aggregate, catalogs *catalog.Store, logger hclog.Logger) ([]byte, error) {
	if cfg.Output.Format == config.OutputJSON {
		return findings.MarshalSummary(agg, baseDir)
	}

	meta := sarif.Metadata{
		BaseDir:     baseDir,
		ToolVersion: version.CoreVersion,
		Catalogs:    catalogs,
		Logger:      logger.Named("sarif"),
	}
	md, err := git.CollectRepositoryMetadata(baseDir)
	switch {
	case err == nil:
		meta.Repository = md
	case errors.Is(err, git.ErrNotRepository):
		logger.Debug("project is not in a git repository, provenance omitted", "path", baseDir)
	default:
		logger.Warn("failed to collect repository metadata", "error", err)
	}

	var buf bytes.Buffer
	if err := sarif.Export(agg, meta, &buf); err != nil {
		return nil, fmt.Errorf("failed to build SARIF: %w", err)
	}
	return buf.Bytes(), nil
}
