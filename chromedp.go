package mermaid2pdf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// settleExpression is settleScript as a bare expression, the form chromedp
// polls.
const settleExpression = `window.diagramsRendered === true ||
	(document.readyState === "complete" && (!document.fonts || document.fonts.status === "loaded"))`

// chromedpRenderer implements pdfRenderer with chromedp. Unlike rod it never
// downloads a browser: Chrome must be installed or given by path.
type chromedpRenderer struct {
	settings browserSettings

	mu            sync.Mutex
	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

func newChromedpRenderer(s browserSettings) *chromedpRenderer {
	return &chromedpRenderer{settings: s}
}

// ensureBrowser lazily starts the browser. The browser context is detached
// from any single conversion; Close ends it.
func (r *chromedpRenderer) ensureBrowser() error {
	if r.browserCtx != nil {
		return nil
	}

	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	if bin := r.settings.resolveBin(); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}
	if r.settings.sandboxDisabled() {
		opts = append(opts, chromedp.NoSandbox)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// The first Run launches the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.browserCtx = browserCtx
	r.cancelAlloc = cancelAlloc
	r.cancelBrowser = cancelBrowser
	return nil
}

// Close shuts the browser down and waits for its process to exit.
func (r *chromedpRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCtx == nil {
		return nil
	}

	err := chromedp.Cancel(r.browserCtx)
	r.cancelBrowser()
	r.cancelAlloc()
	r.browserCtx = nil
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// RenderFromFile opens filePath in a new tab and prints it.
func (r *chromedpRenderer) RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := fileURL(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()

	timeout := r.settings.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()

	// Caller cancellation closes the tab.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	err = chromedp.Run(tabCtx,
		chromedp.EmulateViewport(viewportWidth, viewportHeight, chromedp.EmulateScale(viewportScaleFactor)),
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if opts.SettleDelay > 0 {
		var ready bool
		poll := chromedp.Poll(settleExpression, &ready, chromedp.WithPollingTimeout(opts.SettleDelay))
		// A page that never signals is printed as it is once the delay expires.
		if err := chromedp.Run(tabCtx, poll); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
		}
	}

	var pdf []byte
	err = chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		data, _, err := chromedpPrintParams(opts).Do(ctx)
		pdf = data
		return err
	}))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return pdf, nil
}

// chromedpPrintParams mirrors rodPrintOptions.
func chromedpPrintParams(opts *pdfOptions) *page.PrintToPDFParams {
	return page.PrintToPDF().
		WithPaperWidth(opts.PaperWidth).
		WithPaperHeight(opts.PaperHeight).
		WithMarginTop(opts.MarginInches).
		WithMarginBottom(opts.MarginInches).
		WithMarginLeft(opts.MarginInches).
		WithMarginRight(opts.MarginInches).
		WithPrintBackground(true).
		WithPreferCSSPageSize(true)
}
