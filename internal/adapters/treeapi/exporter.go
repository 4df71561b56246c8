package treeapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"phylotree/internal/blob"
	"phylotree/internal/core"
	"phylotree/internal/filter"
	"phylotree/internal/render"
	"phylotree/pkg/taxonomy"
)

// ExportStatus describes the lifecycle stage of an export request.
type ExportStatus string

const (
	ExportStatusQueued    ExportStatus = "queued"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)

const defaultQueueSize = 32

var (
	// ErrQueueFull is returned when the worker cannot accept more jobs.
	ErrQueueFull = errors.New("export queue full")
	// ErrExportNotFound is returned for unknown export or artifact ids.
	ErrExportNotFound = errors.New("export not found")
)

// ExportArtifact is one stored diagram.
type ExportArtifact struct {
	ID          string        `json:"id"`
	Format      render.Format `json:"format"`
	ContentType string        `json:"content_type"`
	SizeBytes   int64         `json:"size_bytes"`
	Key         string        `json:"key"`
	Filename    string        `json:"filename"`
	URL         string        `json:"url,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ExportRecord tracks an export request and its artifacts.
type ExportRecord struct {
	ID          string           `json:"id"`
	State       filter.State     `json:"state"`
	Formats     []render.Format  `json:"formats"`
	Status      ExportStatus     `json:"status"`
	Error       string           `json:"error,omitempty"`
	Artifacts   []ExportArtifact `json:"artifacts,omitempty"`
	RequestedBy string           `json:"requested_by"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// ExportInput is an enqueue request.
type ExportInput struct {
	State       filter.State
	Formats     []render.Format
	RequestedBy string
}

// ExportScheduler queues exports and serves their results.
type ExportScheduler interface {
	EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error)
	GetExport(id string) (ExportRecord, bool)
	OpenArtifact(ctx context.Context, exportID, artifactID string) (ExportArtifact, io.ReadCloser, error)
}

// Renderer produces encoded diagrams. *core.Service implements it.
type Renderer interface {
	Render(ctx context.Context, state filter.State, format render.Format) (core.Rendered, error)
}

// ExportMetrics counts finished jobs by status.
type ExportMetrics interface {
	ExportFinished(status string)
}

// AuditLogger records export audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry is one export lifecycle event.
type AuditEntry struct {
	ID         string         `json:"id"`
	ExportID   string         `json:"export_id"`
	Action     string         `json:"action"`
	Actor      string         `json:"actor"`
	Status     ExportStatus   `json:"status"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// WorkerOptions configures NewWorker.
type WorkerOptions struct {
	QueueSize int
	Audit     AuditLogger
	Metrics   ExportMetrics
	Logger    *zap.Logger
}

// Worker renders exports asynchronously and stores the artifacts under
// exports/<exportID>/<artifactID>.<ext> in the blob store.
type Worker struct {
	renderer Renderer
	objects  blob.Store
	audit    AuditLogger
	metrics  ExportMetrics
	logger   *zap.Logger

	queue chan string
	mu    sync.RWMutex
	jobs  map[string]*ExportRecord

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker constructs an export worker. Call Start to begin processing.
func NewWorker(renderer Renderer, objects blob.Store, opts WorkerOptions) *Worker {
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		renderer: renderer,
		objects:  objects,
		audit:    opts.Audit,
		metrics:  opts.Metrics,
		logger:   logger,
		queue:    make(chan string, size),
		jobs:     make(map[string]*ExportRecord),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for the current job.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case id := <-w.queue:
			w.process(id)
		}
	}
}

// EnqueueExport validates input and queues it. Formats default to svg and png.
func (w *Worker) EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error) {
	state := input.State.WithDefaults()
	if _, err := taxonomy.ValidateLevels(state.Levels); err != nil {
		return ExportRecord{}, err
	}
	formats := input.Formats
	if len(formats) == 0 {
		formats = []render.Format{render.FormatSVG, render.FormatPNG}
	}
	uniq := make([]render.Format, 0, len(formats))
	seen := make(map[render.Format]struct{}, len(formats))
	for _, f := range formats {
		format, err := render.ParseFormat(string(f))
		if err != nil {
			return ExportRecord{}, err
		}
		if _, dup := seen[format]; dup {
			continue
		}
		seen[format] = struct{}{}
		uniq = append(uniq, format)
	}

	now := time.Now().UTC()
	record := ExportRecord{
		ID:          uuid.NewString(),
		State:       state,
		Formats:     uniq,
		Status:      ExportStatusQueued,
		RequestedBy: input.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	select {
	case w.queue <- record.ID:
	default:
		w.mu.Unlock()
		return ExportRecord{}, ErrQueueFull
	}
	w.jobs[record.ID] = &record
	snapshot := record.copy()
	w.mu.Unlock()

	w.record(ctx, record.ID, ExportStatusQueued, nil)
	return snapshot, nil
}

// GetExport returns a snapshot of the export record.
func (w *Worker) GetExport(id string) (ExportRecord, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return ExportRecord{}, false
	}
	return record.copy(), true
}

// OpenArtifact streams a stored artifact of a finished export.
func (w *Worker) OpenArtifact(ctx context.Context, exportID, artifactID string) (ExportArtifact, io.ReadCloser, error) {
	record, ok := w.GetExport(exportID)
	if !ok {
		return ExportArtifact{}, nil, ErrExportNotFound
	}
	for _, artifact := range record.Artifacts {
		if artifact.ID != artifactID {
			continue
		}
		_, rc, err := w.objects.Get(ctx, artifact.Key)
		if errors.Is(err, blob.ErrNotFound) {
			return ExportArtifact{}, nil, fmt.Errorf("%w: artifact %s", ErrExportNotFound, artifactID)
		}
		if err != nil {
			return ExportArtifact{}, nil, err
		}
		return artifact, rc, nil
	}
	return ExportArtifact{}, nil, fmt.Errorf("%w: artifact %s", ErrExportNotFound, artifactID)
}

func (w *Worker) process(id string) {
	record, ok := w.GetExport(id)
	if !ok {
		return
	}
	w.updateStatus(id, ExportStatusRunning)

	artifacts := make([]ExportArtifact, 0, len(record.Formats))
	for _, format := range record.Formats {
		artifact, err := w.materialize(id, record.State, format)
		if err != nil {
			w.fail(id, err)
			return
		}
		artifacts = append(artifacts, artifact)
	}
	w.complete(id, artifacts)
}

func (w *Worker) materialize(exportID string, state filter.State, format render.Format) (ExportArtifact, error) {
	out, err := w.renderer.Render(w.ctx, state, format)
	if err != nil {
		return ExportArtifact{}, fmt.Errorf("render %s: %w", format, err)
	}
	artifactID := uuid.NewString()
	key := fmt.Sprintf("exports/%s/%s.%s", exportID, artifactID, format)
	info, err := w.objects.Put(w.ctx, key, bytes.NewReader(out.Bytes), blob.PutOptions{
		ContentType: out.ContentType,
		Metadata:    map[string]string{"export": exportID, "filename": out.Filename},
	})
	if err != nil {
		return ExportArtifact{}, fmt.Errorf("store artifact failed: %w", err)
	}
	artifact := ExportArtifact{
		ID:          artifactID,
		Format:      format,
		ContentType: out.ContentType,
		SizeBytes:   info.Size,
		Key:         key,
		Filename:    out.Filename,
		CreatedAt:   info.LastModified,
	}
	if artifact.SizeBytes == 0 {
		artifact.SizeBytes = int64(len(out.Bytes))
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now().UTC()
	}
	if url, err := w.objects.PresignURL(w.ctx, key, blob.SignedURLOptions{Method: "GET"}); err == nil {
		artifact.URL = url
	}
	return artifact, nil
}

func (w *Worker) updateStatus(id string, status ExportStatus) {
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.UpdatedAt = time.Now().UTC()
	}
	w.mu.Unlock()
	w.record(w.ctx, id, status, nil)
}

func (w *Worker) complete(id string, artifacts []ExportArtifact) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.record(w.ctx, id, ExportStatusSucceeded, map[string]any{"artifacts": len(artifacts)})
	w.finished(ExportStatusSucceeded)
	w.logger.Info("export succeeded", zap.String("export_id", id), zap.Int("artifacts", len(artifacts)))
}

func (w *Worker) fail(id string, cause error) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusFailed
		record.Error = cause.Error()
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.record(w.ctx, id, ExportStatusFailed, map[string]any{"error": cause.Error()})
	w.finished(ExportStatusFailed)
	w.logger.Warn("export failed", zap.String("export_id", id), zap.Error(cause))
}

func (w *Worker) finished(status ExportStatus) {
	if w.metrics != nil {
		w.metrics.ExportFinished(string(status))
	}
}

func (w *Worker) record(ctx context.Context, id string, status ExportStatus, metadata map[string]any) {
	if w.audit == nil {
		return
	}
	w.mu.RLock()
	var actor string
	if record, ok := w.jobs[id]; ok {
		actor = record.RequestedBy
	}
	w.mu.RUnlock()
	w.audit.Record(ctx, AuditEntry{
		ID:         uuid.NewString(),
		ExportID:   id,
		Action:     "tree_export",
		Actor:      actor,
		Status:     status,
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	})
}

func (r *ExportRecord) copy() ExportRecord {
	out := *r
	out.State = r.State.Clone()
	out.Formats = append([]render.Format(nil), r.Formats...)
	out.Artifacts = append([]ExportArtifact(nil), r.Artifacts...)
	if r.CompletedAt != nil {
		completed := *r.CompletedAt
		out.CompletedAt = &completed
	}
	return out
}

// MemoryAuditLog captures audit entries in memory.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a copy of the recorded entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// ZapAuditLog writes audit entries to a logger.
type ZapAuditLog struct {
	Logger *zap.Logger
}

// Record logs entry at info level.
func (l ZapAuditLog) Record(_ context.Context, entry AuditEntry) {
	if l.Logger == nil {
		return
	}
	l.Logger.Info("export audit",
		zap.String("export_id", entry.ExportID),
		zap.String("action", entry.Action),
		zap.String("actor", entry.Actor),
		zap.String("status", string(entry.Status)),
		zap.Any("metadata", entry.Metadata),
		zap.Time("occurred_at", entry.OccurredAt))
}
