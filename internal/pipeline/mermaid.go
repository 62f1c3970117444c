package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	mermaid "github.com/dreampuf/mermaid.go"
)

// DiagramRenderer renders diagram source to inline SVG markup.
type DiagramRenderer interface {
	Render(ctx context.Context, source string) (string, error)
}

// renderEngine is the part of *mermaid.RenderEngine the renderer drives.
type renderEngine interface {
	Render(content string) (string, error)
	Cancel()
}

// MermaidRenderer renders Mermaid diagrams with mermaid.js running in a
// headless browser. The browser starts on first use and is reused until Close.
type MermaidRenderer struct {
	mu        sync.Mutex
	engine    renderEngine
	newEngine func(ctx context.Context) (renderEngine, error)
}

// Compile-time interface check.
var _ DiagramRenderer = (*MermaidRenderer)(nil)

// NewMermaidRenderer creates a MermaidRenderer. No browser is started yet.
func NewMermaidRenderer() *MermaidRenderer {
	return &MermaidRenderer{newEngine: newMermaidEngine}
}

func newMermaidEngine(ctx context.Context) (renderEngine, error) {
	engine, err := mermaid.NewRenderEngine(ctx)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

// Render returns the SVG for source. The engine has no context support, so
// cancellation stops the engine; the next Render starts a new one.
func (r *MermaidRenderer) Render(ctx context.Context, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(source) == "" {
		return "", fmt.Errorf("%w: empty diagram", ErrDiagramRender)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine == nil {
		// The engine outlives this call; it is stopped by Close.
		engine, err := r.newEngine(context.WithoutCancel(ctx))
		if err != nil {
			return "", fmt.Errorf("%w: starting mermaid engine: %v", ErrDiagramRender, err)
		}
		r.engine = engine
	}
	engine := r.engine

	type result struct {
		svg string
		err error
	}
	done := make(chan result, 1)

	go func() {
		svg, err := engine.Render(source)
		done <- result{svg: svg, err: err}
	}()

	select {
	case <-ctx.Done():
		// The engine is not used again until its pending call returns.
		engine.Cancel()
		<-done
		r.engine = nil
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("%w: %v", ErrDiagramRender, res.err)
		}
		return res.svg, nil
	}
}

// Close stops the headless browser, if started.
func (r *MermaidRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine != nil {
		r.engine.Cancel()
		r.engine = nil
	}
	return nil
}
