package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// ErrFetchTimeout means a page navigation did not settle within the
// configured timeout.
var ErrFetchTimeout = errors.New("page navigation timed out")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Options holds environment-dependent launch parameters and the two scrape
// timeouts. The selector timeout must be shorter than the navigation timeout:
// a single slow field should never eat the whole page budget.
type Options struct {
	Headless        bool
	ExecPath        string
	NavTimeout      time.Duration
	SelectorTimeout time.Duration
}

// Launcher opens browser sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Session is one running browser instance. Callers own its lifetime and must
// Close it on every exit path.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close()
}

// Page is one browser tab pointed at a product listing. Selector reads wait
// for the element up to the selector timeout and report an error on a miss;
// callers decide whether a miss is fatal.
type Page interface {
	Navigate(url string) error
	Text(selector string) (string, error)
	Attr(selector, attr string) (string, error)
	HTML() (string, error)
	Close()
}

type chromeLauncher struct {
	opts Options
}

// NewLauncher returns a chromedp-backed Launcher.
func NewLauncher(opts Options) Launcher {
	return &chromeLauncher{opts: opts}
}

// Launch starts a Chromium process. The returned session is bound to ctx and
// shuts the process down when closed.
func (l *chromeLauncher) Launch(ctx context.Context) (Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(userAgent),
	)
	if !l.opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if l.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(l.opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Run with no actions starts the process now, so launch failures surface
	// here instead of on the first page operation.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	return &chromeSession{
		ctx:  browserCtx,
		opts: l.opts,
		cancels: []context.CancelFunc{
			cancelBrowser,
			cancelAlloc,
		},
	}, nil
}

type chromeSession struct {
	ctx     context.Context
	opts    Options
	cancels []context.CancelFunc
}

func (s *chromeSession) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, cancel := chromedp.NewContext(s.ctx)
	return &chromePage{ctx: tabCtx, cancel: cancel, opts: s.opts}, nil
}

func (s *chromeSession) Close() {
	for i := len(s.cancels) - 1; i >= 0; i-- {
		s.cancels[i]()
	}
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
}

func (p *chromePage) Navigate(url string) error {
	navCtx, cancel := context.WithTimeout(p.ctx, p.opts.NavTimeout)
	defer cancel()

	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrFetchTimeout, url)
		}
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

// Text waits for selector and returns its trimmed text content. A miss or a
// selector timeout is an ordinary error, never a panic; the extraction
// pipeline treats it as "field not present".
func (p *chromePage) Text(selector string) (string, error) {
	opCtx, cancel := context.WithTimeout(p.ctx, p.opts.SelectorTimeout)
	defer cancel()

	var text string
	if err := chromedp.Run(opCtx, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading text of %q: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}

func (p *chromePage) Attr(selector, attr string) (string, error) {
	opCtx, cancel := context.WithTimeout(p.ctx, p.opts.SelectorTimeout)
	defer cancel()

	var value string
	var ok bool
	err := chromedp.Run(opCtx,
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.AttributeValue(selector, attr, &value, &ok, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("reading attribute %q of %q: %w", attr, selector, err)
	}
	if !ok {
		return "", fmt.Errorf("attribute %q not present on %q", attr, selector)
	}
	return strings.TrimSpace(value), nil
}

// HTML dumps the rendered document, for read-only queries against markup the
// selector strategies cannot reach.
func (p *chromePage) HTML() (string, error) {
	opCtx, cancel := context.WithTimeout(p.ctx, p.opts.SelectorTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(opCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("dumping page html: %w", err)
	}
	return html, nil
}

func (p *chromePage) Close() {
	p.cancel()
}
