package mermaid2pdf

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-mermaid2pdf/internal/process"
)

// pdfRenderer renders a local HTML file to PDF bytes. Implementations own a
// browser that is started lazily and released by Close.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error)
	Close() error
}

// Compile-time interface checks.
var (
	_ pdfRenderer = (*rodRenderer)(nil)
	_ pdfRenderer = (*chromedpRenderer)(nil)
)

// pdfOptions holds print settings for one render.
type pdfOptions struct {
	PaperWidth   float64 // inches
	PaperHeight  float64 // inches
	MarginInches float64
	SettleDelay  time.Duration
}

// Browser viewport used while laying out the page.
const (
	viewportWidth       = 1200
	viewportHeight      = 800
	viewportScaleFactor = 2
)

// settleScript reports whether the page is ready to print: either the page
// announces completion itself, or the document and its fonts are loaded.
const settleScript = `() => window.diagramsRendered === true ||
	(document.readyState === "complete" && (!document.fonts || document.fonts.status === "loaded"))`

// browserSettings configures how a renderer launches its browser.
type browserSettings struct {
	bin       string
	noSandbox bool
	timeout   time.Duration
}

// resolveBin returns the configured binary, falling back to ROD_BROWSER_BIN.
func (s browserSettings) resolveBin() string {
	if s.bin != "" {
		return s.bin
	}
	return os.Getenv("ROD_BROWSER_BIN")
}

// sandboxDisabled reports whether Chrome must run without its sandbox, as
// required in CI and most containers.
func (s browserSettings) sandboxDisabled() bool {
	return s.noSandbox ||
		os.Getenv("ROD_NO_SANDBOX") == "1" ||
		os.Getenv("CI") == "true"
}

// fileURL returns the file:// URL of path, made absolute.
func fileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// rodRenderer implements pdfRenderer using go-rod.
// Rod downloads a managed Chromium on first run if none is configured.
type rodRenderer struct {
	settings browserSettings
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func newRodRenderer(s browserSettings) *rodRenderer {
	return &rodRenderer{settings: s}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()
	if bin := r.settings.resolveBin(); bin != "" {
		l = l.Bin(bin)
	}
	if r.settings.sandboxDisabled() {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.launcher = l

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		r.killBrowser()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.browser = browser
	return nil
}

// Close disconnects and kills the browser process tree.
func (r *rodRenderer) Close() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	r.killBrowser()
	return err
}

func (r *rodRenderer) killBrowser() {
	if r.launcher == nil {
		return
	}
	process.KillProcessGroup(r.launcher.PID())
	r.launcher.Kill()
	r.launcher = nil
}

// RenderFromFile opens a local HTML file in headless Chrome and prints it.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := fileURL(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	timeout := r.settings.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	p := page.Context(ctx)

	err = p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: viewportScaleFactor,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: setting viewport: %v", ErrPageLoad, err)
	}

	loading := p.Timeout(timeout)
	waitIdle := loading.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := loading.Navigate(target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	waitIdle()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.SettleDelay > 0 {
		// A page that never signals is printed as it is once the delay expires.
		if err := p.Timeout(opts.SettleDelay).Wait(rod.Eval(settleScript)); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
		}
	}

	reader, err := p.PDF(rodPrintOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdf, nil
}

// rodPrintOptions builds the print request: given paper size, uniform
// margins, backgrounds printed, CSS @page size honored.
func rodPrintOptions(opts *pdfOptions) *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		PaperWidth:        floatPtr(opts.PaperWidth),
		PaperHeight:       floatPtr(opts.PaperHeight),
		MarginTop:         floatPtr(opts.MarginInches),
		MarginBottom:      floatPtr(opts.MarginInches),
		MarginLeft:        floatPtr(opts.MarginInches),
		MarginRight:       floatPtr(opts.MarginInches),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
