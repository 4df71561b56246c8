// Package treeapi exposes the taxonomy service, presets and tree exports over HTTP.
package treeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"phylotree/internal/core"
	"phylotree/internal/filter"
	"phylotree/internal/presets"
	"phylotree/internal/render"
	"phylotree/pkg/preset"
	"phylotree/pkg/taxonomy"
)

const maxBodyBytes = 1 << 20

// Service is the subset of *core.Service the handler depends on.
type Service interface {
	View(ctx context.Context, state filter.State) (filter.View, error)
	Render(ctx context.Context, state filter.State, format render.Format) (core.Rendered, error)
	Reload(ctx context.Context) error
	Table() *taxonomy.Table
	LoadedAt() time.Time
	Engine() string
}

// Handler provides HTTP access to views, rendered trees, presets and exports.
type Handler struct {
	Service Service
	Presets preset.Store
	Exports ExportScheduler
	Metrics http.Handler
	Logger  *zap.Logger
}

// NewHandler constructs a handler. Presets, Exports and Metrics are optional;
// their routes answer 404 when unset.
func NewHandler(svc Service) *Handler {
	return &Handler{Service: svc, Logger: zap.NewNop()}
}

type levelInfo struct {
	Name  taxonomy.Level `json:"name"`
	Key   string         `json:"key"`
	Color string         `json:"color"`
}

type viewResponse struct {
	Options     map[taxonomy.Level][]string `json:"options"`
	Selected    map[taxonomy.Level][]string `json:"selected"`
	Dropped     map[taxonomy.Level][]string `json:"dropped,omitempty"`
	Rows        int                         `json:"rows"`
	Species     []string                    `json:"species"`
	Highlighted []string                    `json:"highlighted"`
	State       filter.State                `json:"state"`
}

type presetResponse struct {
	Name  string       `json:"name"`
	State filter.State `json:"state"`
}

type exportRequest struct {
	State       filter.State    `json:"state"`
	Formats     []render.Format `json:"formats"`
	RequestedBy string          `json:"requested_by"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "tree service not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/healthz":
		h.handleHealth(w, r)
	case path == "/metrics":
		if h.Metrics == nil {
			http.NotFound(w, r)
			return
		}
		h.Metrics.ServeHTTP(w, r)
	case path == "/api/v1/levels":
		if !allow(w, r, http.MethodGet) {
			return
		}
		h.handleLevels(w)
	case path == "/api/v1/view":
		if !allow(w, r, http.MethodPost) {
			return
		}
		h.handleView(w, r)
	case path == "/api/v1/tree":
		if !allow(w, r, http.MethodPost) {
			return
		}
		h.handleTree(w, r)
	case path == "/api/v1/reload":
		if !allow(w, r, http.MethodPost) {
			return
		}
		h.handleReload(w, r)
	case path == "/api/v1/presets" || strings.HasPrefix(path, "/api/v1/presets/"):
		if h.Presets == nil {
			http.NotFound(w, r)
			return
		}
		h.handlePresets(w, r, strings.TrimPrefix(strings.TrimPrefix(path, "/api/v1/presets"), "/"))
	case path == "/api/v1/exports" || strings.HasPrefix(path, "/api/v1/exports/"):
		if h.Exports == nil {
			http.NotFound(w, r)
			return
		}
		h.handleExports(w, r, strings.TrimPrefix(strings.TrimPrefix(path, "/api/v1/exports"), "/"))
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"rows":      h.Service.Table().Len(),
		"engine":    h.Service.Engine(),
		"loaded_at": h.Service.LoadedAt(),
	})
}

func (h *Handler) handleLevels(w http.ResponseWriter) {
	levels := taxonomy.Levels()
	out := make([]levelInfo, len(levels))
	for i, lvl := range levels {
		out[i] = levelInfo{Name: lvl, Key: lvl.Key(), Color: lvl.Color()}
	}
	writeJSON(w, http.StatusOK, map[string]any{"levels": out})
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	state, ok := decodeState(w, r)
	if !ok {
		return
	}
	view, err := h.Service.View(r.Context(), state)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewResponse{
		Options:     view.Options,
		Selected:    view.Selected,
		Dropped:     view.Dropped,
		Rows:        view.Rows.Len(),
		Species:     view.Species,
		Highlighted: view.Highlighted,
		State:       view.Effective(state.WithDefaults()),
	})
}

func (h *Handler) handleTree(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, ok := decodeState(w, r)
	if !ok {
		return
	}
	out, err := h.Service.Render(r.Context(), state, format)
	if errors.Is(err, core.ErrNoData) {
		writeJSON(w, http.StatusOK, map[string]any{"notice": core.NoDataNotice})
		return
	}
	if err != nil {
		h.writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Bytes)))
	w.Header().Set("X-Render-Engine", out.Engine)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Bytes)
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Reload(r.Context()); err != nil {
		if errors.Is(err, core.ErrNoSource) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": h.Service.Table().Len(), "loaded_at": h.Service.LoadedAt()})
}

func (h *Handler) handlePresets(w http.ResponseWriter, r *http.Request, name string) {
	ctx := r.Context()
	if name == "" {
		if !allow(w, r, http.MethodGet) {
			return
		}
		names, err := h.Presets.List(ctx)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"presets": names})
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := h.Presets.Load(ctx, name)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, presetResponse{Name: p.Name, State: presets.ToState(p)})
	case http.MethodPut:
		state, ok := decodeState(w, r)
		if !ok {
			return
		}
		p := presets.FromState(name, state)
		if err := h.Presets.Save(ctx, p); err != nil {
			h.writeErr(w, err)
			return
		}
		saved, err := p.Normalize()
		if err != nil {
			h.writeErr(w, err)
			return
		}
		h.logger().Info("preset saved", zap.String("preset", saved.Name))
		writeJSON(w, http.StatusOK, presetResponse{Name: saved.Name, State: presets.ToState(saved)})
	case http.MethodDelete:
		existed, err := h.Presets.Delete(ctx, name)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		if !existed {
			writeError(w, http.StatusNotFound, "preset not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleExports(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		if !allow(w, r, http.MethodPost) {
			return
		}
		h.handleExportCreate(w, r)
		return
	}
	if !allow(w, r, http.MethodGet) {
		return
	}
	segments := strings.Split(rest, "/")
	switch {
	case len(segments) == 1:
		record, ok := h.Exports.GetExport(segments[0])
		if !ok {
			writeError(w, http.StatusNotFound, "export not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"export": record})
	case len(segments) == 3 && segments[1] == "artifacts":
		h.handleArtifact(w, r, segments[0], segments[2])
	default:
		writeError(w, http.StatusNotFound, "export endpoint not found")
	}
}

func (h *Handler) handleExportCreate(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	record, err := h.Exports.EnqueueExport(r.Context(), ExportInput{
		State:       req.State,
		Formats:     req.Formats,
		RequestedBy: req.RequestedBy,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"export": record})
}

func (h *Handler) handleArtifact(w http.ResponseWriter, r *http.Request, exportID, artifactID string) {
	artifact, body, err := h.Exports.OpenArtifact(r.Context(), exportID, artifactID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	defer func() { _ = body.Close() }()
	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	if artifact.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(artifact.SizeBytes, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger().Error("request failed", zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, taxonomy.ErrUnknownLevel),
		errors.Is(err, taxonomy.ErrNoLevels),
		errors.Is(err, taxonomy.ErrDuplicateLevel),
		errors.Is(err, taxonomy.ErrNonContiguous),
		errors.Is(err, render.ErrUnsupportedFormat),
		errors.Is(err, preset.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, preset.ErrNotFound), errors.Is(err, ErrExportNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrQueueFull), errors.Is(err, render.ErrEngineUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// decodeState reads an optional state body. An empty body is the default state.
func decodeState(w http.ResponseWriter, r *http.Request) (filter.State, bool) {
	var state filter.State
	if !decodeBody(w, r, &state) {
		return filter.State{}, false
	}
	return state, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		return true
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
