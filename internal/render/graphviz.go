package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"

	"phylotree/internal/tree"
)

// GraphvizRenderer pipes DOT through the external graphviz layout engine.
type GraphvizRenderer struct {
	Path string
}

// Engine implements Renderer.
func (g *GraphvizRenderer) Engine() string { return EngineGraphviz }

// Render implements Renderer.
func (g *GraphvizRenderer) Render(ctx context.Context, t *tree.Tree, format Format) ([]byte, error) {
	switch format {
	case FormatDOT, FormatJSON:
		return encodeText(t, format)
	case FormatSVG, FormatPNG:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
	src, err := DOT(t)
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, g.Path, "-T"+string(format))
	cmd.Stdin = bytes.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("graphviz %s: %w: %s", format, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
