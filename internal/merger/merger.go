package merger

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/scan-io-git/scanio-merge/internal/findings"
	"github.com/scan-io-git/scanio-merge/internal/readers"
	"github.com/scan-io-git/scanio-merge/internal/resource"
)

// Launch statuses reported per source.
const (
	StatusOK      = "OK"
	StatusFailed  = "FAILED"
	StatusSkipped = "SKIPPED"
)

// Launch records the outcome of one configured source.
type Launch struct {
	Source    readers.Source `json:"source"`
	Status    string         `json:"status"`
	Resources int            `json:"resources"`
	Message   string         `json:"message,omitempty"`
	Duration  time.Duration  `json:"duration"`
}

// Result is the merged aggregate together with the per-source launches.
type Result struct {
	Aggregate *findings.Aggregate
	Launches  []Launch
}

// Merger parses every configured source and folds the readers into one aggregate.
type Merger struct {
	factory *readers.Factory
	jobs    int          // Number of report parsers running at once
	logger  hclog.Logger // Logger for logging messages and errors
}

// New creates a Merger. A non-positive jobs value runs the parsers one at a time.
func New(factory *readers.Factory, jobs int, logger hclog.Logger) *Merger {
	if jobs < 1 {
		jobs = 1
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Merger{
		factory: factory,
		jobs:    jobs,
		logger:  logger,
	}
}

type job struct {
	index  int
	source readers.Source
	reader readers.Reader
}

// Run builds a reader per source, walks the source trees, parses the reports and merges
// every reader into a fresh aggregate.
//
// Source trees are walked first and in order. Reports are parsed concurrently, but merges
// always follow the configured order, so repeated runs produce the same finding lists.
// The first failing source aborts the run and no partial aggregate is returned.
func (m *Merger) Run(ctx context.Context, sources []readers.Source) (*Result, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources to merge")
	}

	launches := make([]Launch, len(sources))
	var walkers, reports []job
	for i, src := range sources {
		launches[i] = Launch{Source: src, Status: StatusSkipped}

		r, err := m.factory.New(src)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src, err)
		}
		if r.Format() == readers.FormatSource {
			walkers = append(walkers, job{index: i, source: src, reader: r})
		} else {
			reports = append(reports, job{index: i, source: src, reader: r})
		}
	}

	m.logger.Info("merge starting", "sources", len(sources), "trees", len(walkers), "reports", len(reports), "goroutines", m.jobs)

	for _, j := range walkers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := m.parse(j, launches); err != nil {
			return nil, err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.jobs)
	for _, j := range reports {
		j := j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return m.parse(j, launches)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg := findings.NewAggregate()
	for _, group := range [][]job{walkers, reports} {
		for _, j := range group {
			if err := j.reader.Merge(agg); err != nil {
				return nil, fmt.Errorf("source %s: %w", j.source, err)
			}
		}
	}

	m.logger.Info("merge finished", "resources", agg.Len(), "findings", agg.Total())
	return &Result{Aggregate: agg, Launches: launches}, nil
}

// parse runs one reader and records its launch. Each goroutine writes only its own slot.
func (m *Merger) parse(j job, launches []Launch) error {
	start := time.Now()
	m.logger.Debug("parsing source", "#", j.index+1, "source", j.source.String())

	err := j.reader.Parse(j.source.Path)
	launch := &launches[j.index]
	launch.Duration = time.Since(start)
	if err != nil {
		launch.Status = StatusFailed
		launch.Message = err.Error()
		m.logger.Error("failed to parse source", "source", j.source.String(), "error", err)
		return fmt.Errorf("source %s: %w", j.source, err)
	}

	launch.Status = StatusOK
	if lister, ok := j.reader.(resourceLister); ok {
		launch.Resources = len(lister.Resources())
	}
	return nil
}

type resourceLister interface {
	Resources() []*resource.ResourceInfo
}
