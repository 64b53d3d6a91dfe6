package scraper

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/sitebrief/config"
)

// BrowserStrategy renders pages in a pooled headless Chrome. It is the last
// resort for JavaScript-built sites and the only strategy that can take its
// own screenshot.
type BrowserStrategy struct {
	browser *rod.Browser
	pool    rod.Pool[rod.Page]
	cfg     config.BrowserConfig
	conv    *converter.Converter
}

// NewBrowserStrategy launches a headless browser and creates the page pool.
func NewBrowserStrategy(cfg config.BrowserConfig) (*BrowserStrategy, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("browser: launch: %w", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	return &BrowserStrategy{
		browser: browser,
		pool:    rod.NewPagePool(cfg.MaxPages),
		cfg:     cfg,
		conv:    newMarkdownConverter(),
	}, nil
}

func (b *BrowserStrategy) Name() string { return "browser" }

// Fetch renders pageURL. Steps that touch the page before navigation
// (stealth script, request hijacking) must run before Navigate to apply.
func (b *BrowserStrategy) Fetch(ctx context.Context, pageURL string, profile Profile) (*RawPage, error) {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	// ── 2. Acquire page from pool ─────────────────────────────────────
	page, err := b.pool.Get(func() (*rod.Page, error) {
		return b.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, fmt.Errorf("browser: acquire page: %w", err)
	}

	// ── 3. Reset and return the page, using the context-free handle ───
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		b.pool.Put(page)
	}()

	// ── 4. Stealth injection ──────────────────────────────────────────
	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
	}

	// ── 5. Block fonts, media and ad domains ──────────────────────────
	if router := setupHijack(page, b.cfg.BlockedResourceTypes, true); router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 6. Navigate and wait for the DOM to settle ────────────────────
	p := page.Context(ctx)
	if err := p.Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}

	// ── 7. Extract ────────────────────────────────────────────────────
	rawHTML, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("browser: read html: %w", err)
	}
	md := renderedMarkdown(b.conv, rawHTML, pageURL)
	if strings.TrimSpace(md) == "" {
		return nil, fmt.Errorf("browser: no text content for %s", pageURL)
	}

	out := &RawPage{Markdown: md, HTML: rawHTML}
	if info, err := p.Info(); err == nil {
		out.FinalURL = info.URL
	}
	if profile == Homepage {
		out.Screenshot = screenshotDataURL(p)
	}
	return out, nil
}

// screenshotDataURL captures the viewport as a JPEG data URL, or "" on error.
func screenshotDataURL(p *rod.Page) string {
	shot, err := p.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(70),
	})
	if err != nil {
		slog.Warn("screenshot failed", "error", err)
		return ""
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(shot)
}

// Close drains the page pool and kills the browser process.
func (b *BrowserStrategy) Close() {
	slog.Info("browser shutting down: draining page pool")
	b.pool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	if err := b.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
}
