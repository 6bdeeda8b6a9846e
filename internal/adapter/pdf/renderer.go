// Package pdf prints fact sheets to PDF with headless Chrome.
package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/couchcryptid/disaster-funding-service/internal/domain"
)

// Renderer prints fact sheets through a fresh headless browser per request.
type Renderer struct {
	timeout   time.Duration
	allocOpts []chromedp.ExecAllocatorOption
	logger    *slog.Logger
}

// NewRenderer creates a Renderer whose renders are bounded by timeout.
func NewRenderer(timeout time.Duration, logger *slog.Logger) *Renderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	return &Renderer{timeout: timeout, allocOpts: opts, logger: logger}
}

// Render returns a Letter-size PDF of the fact sheet.
func (r *Renderer) Render(ctx context.Context, fs domain.FactSheet) ([]byte, error) {
	html, err := RenderHTML(fs)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	start := time.Now()
	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.5).
				WithPaperHeight(11).
				WithPreferCSSPageSize(false).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print fact sheet: %w", err)
	}

	r.logger.Debug("fact sheet rendered", "events", len(fs.Events), "bytes", len(pdf), "duration", time.Since(start))
	return pdf, nil
}
