// Package core holds the classification table and turns filter state into
// views, trees and rendered diagrams.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"phylotree/internal/filter"
	"phylotree/internal/render"
	"phylotree/internal/tabular"
	"phylotree/internal/tree"
	"phylotree/pkg/taxonomy"
)

// NoDataNotice is shown instead of a diagram when the filters leave no rows.
const NoDataNotice = "No taxa available."

var (
	// ErrNoData is returned when the filtered table is empty.
	ErrNoData = errors.New("core: no taxa available")
	// ErrNoSource is returned by Reload on services built from a fixed table.
	ErrNoSource = errors.New("core: no data source configured")
)

// Source locates the data file.
type Source struct {
	Path  string
	Sheet string
}

// Rendered is an encoded diagram ready for download.
type Rendered struct {
	Bytes       []byte
	ContentType string
	Filename    string
	Engine      string
}

// Option configures a Service.
type Option func(*Service)

// WithRenderer sets the diagram engine. The default is the native renderer.
func WithRenderer(r render.Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service serves read-only views of the current table. Reload swaps the
// whole table; callers never observe a partially loaded one.
type Service struct {
	source   Source
	table    atomic.Pointer[taxonomy.Table]
	loadedAt atomic.Pointer[time.Time]
	reloadMu sync.Mutex
	renderer render.Renderer
	metrics  MetricsRecorder
	logger   *zap.Logger
}

// NewService loads the table from src.
func NewService(ctx context.Context, src Source, opts ...Option) (*Service, error) {
	s := newService(opts)
	s.source = src
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStaticService serves a fixed table. Reload returns ErrNoSource.
func NewStaticService(table *taxonomy.Table, opts ...Option) *Service {
	s := newService(opts)
	s.swap(table)
	return s
}

func newService(opts []Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		s.renderer = render.NativeRenderer{}
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Source returns the configured data source.
func (s *Service) Source() Source { return s.source }

// Table returns the current table.
func (s *Service) Table() *taxonomy.Table { return s.table.Load() }

// LoadedAt returns when the current table was installed.
func (s *Service) LoadedAt() time.Time {
	if t := s.loadedAt.Load(); t != nil {
		return *t
	}
	return time.Time{}
}

// Engine names the active renderer.
func (s *Service) Engine() string { return s.renderer.Engine() }

func (s *Service) swap(table *taxonomy.Table) {
	now := time.Now().UTC()
	s.table.Store(table)
	s.loadedAt.Store(&now)
}

// Reload re-reads the data file. On failure the previous table stays in place.
func (s *Service) Reload(ctx context.Context) (err error) {
	defer s.observe(ctx, "reload", time.Now(), &err)
	if s.source.Path == "" {
		return ErrNoSource
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	table, err := tabular.Load(s.source.Path, tabular.Options{Sheet: s.source.Sheet})
	if rec, ok := s.metrics.(ReloadRecorder); ok {
		rec.DataReloaded(err == nil)
	}
	if err != nil {
		s.logger.Warn("data load failed", zap.String("path", s.source.Path), zap.Error(err))
		return fmt.Errorf("load %s: %w", s.source.Path, err)
	}
	s.swap(table)
	s.logger.Info("data loaded", zap.String("path", s.source.Path), zap.Int("rows", table.Len()))
	return nil
}

// View resolves state against the current table. The active levels are
// validated the same way Tree does.
func (s *Service) View(ctx context.Context, state filter.State) (view filter.View, err error) {
	defer s.observe(ctx, "view", time.Now(), &err)
	state = state.WithDefaults()
	if _, err := taxonomy.ValidateLevels(state.Levels); err != nil {
		return filter.View{}, err
	}
	return filter.Resolve(s.Table(), state), nil
}

// Tree builds the diagram for state. Level errors take precedence over
// ErrNoData.
func (s *Service) Tree(ctx context.Context, state filter.State) (t *tree.Tree, err error) {
	defer s.observe(ctx, "tree", time.Now(), &err)
	return s.build(state)
}

func (s *Service) build(state filter.State) (*tree.Tree, error) {
	state = state.WithDefaults()
	levels, err := taxonomy.ValidateLevels(state.Levels)
	if err != nil {
		return nil, err
	}
	view := filter.Resolve(s.Table(), state)
	if view.Rows.Empty() {
		return nil, ErrNoData
	}
	return tree.Build(view.Rows, levels, tree.Options{Title: state.Title, Highlighted: view.Highlighted})
}

// Render builds and encodes the diagram for state.
func (s *Service) Render(ctx context.Context, state filter.State, format render.Format) (out Rendered, err error) {
	defer s.observe(ctx, "render", time.Now(), &err)
	t, err := s.build(state)
	if err != nil {
		return Rendered{}, err
	}
	data, err := s.renderer.Render(ctx, t, format)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{
		Bytes:       data,
		ContentType: render.ContentType(format),
		Filename:    render.Filename(t.Title, format),
		Engine:      s.renderer.Engine(),
	}, nil
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, errp *error) {
	// an empty result is a normal outcome, not a failure
	success := *errp == nil || errors.Is(*errp, ErrNoData)
	s.metrics.Observe(ctx, op, success, time.Since(start))
	if !success {
		s.logger.Debug("operation failed", zap.String("operation", op), zap.Error(*errp))
	}
}
