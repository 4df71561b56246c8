package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"phylotree/internal/tree"
)

// Engine modes accepted by NewRenderer.
const (
	EngineAuto     = "auto"
	EngineGraphviz = "graphviz"
	EngineNative   = "native"
)

// ErrEngineUnavailable is returned when the graphviz binary cannot be used.
var ErrEngineUnavailable = errors.New("render: graphviz engine unavailable")

// Renderer produces an encoded tree.
type Renderer interface {
	Render(ctx context.Context, t *tree.Tree, format Format) ([]byte, error)
	Engine() string
}

// NewRenderer selects an engine. Auto prefers graphviz when dotPath (or
// "dot" on PATH) resolves to an executable.
func NewRenderer(mode, dotPath string) (Renderer, error) {
	if dotPath == "" {
		dotPath = "dot"
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", EngineAuto:
		if resolved, err := exec.LookPath(dotPath); err == nil {
			return &GraphvizRenderer{Path: resolved}, nil
		}
		return NativeRenderer{}, nil
	case EngineGraphviz:
		resolved, err := exec.LookPath(dotPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		}
		return &GraphvizRenderer{Path: resolved}, nil
	case EngineNative:
		return NativeRenderer{}, nil
	default:
		return nil, fmt.Errorf("render: unknown engine %q", mode)
	}
}

// NativeRenderer lays out and rasterises trees in process.
type NativeRenderer struct{}

// Engine implements Renderer.
func (NativeRenderer) Engine() string { return EngineNative }

// Render implements Renderer.
func (NativeRenderer) Render(ctx context.Context, t *tree.Tree, format Format) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch format {
	case FormatDOT, FormatJSON:
		return encodeText(t, format)
	case FormatSVG:
		var buf bytes.Buffer
		if err := WriteSVG(&buf, Arrange(t)); err != nil {
			return nil, fmt.Errorf("write svg: %w", err)
		}
		return buf.Bytes(), nil
	case FormatPNG:
		payload, err := pngBytes(Arrange(t))
		if err != nil {
			return nil, fmt.Errorf("write png: %w", err)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
}

func encodeText(t *tree.Tree, format Format) ([]byte, error) {
	if format == FormatJSON {
		payload, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("marshal tree: %w", err)
		}
		return payload, nil
	}
	return DOT(t)
}
