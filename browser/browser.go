package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ipr-watch/model"
	"ipr-watch/ngselect"
	"ipr-watch/searcher"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

type Options struct {
	Headless          bool
	NavigationTimeout time.Duration
	StepTimeout       time.Duration
	PollInterval      time.Duration
	TypeDelay         time.Duration
}

// Browser is one Chromium process. Every page it opens lives in its own
// incognito context, so sessions share no cookies or storage.
type Browser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	opts     Options
}

func Launch(ctx context.Context, opts Options) (*Browser, error) {
	l := launcher.New().
		Context(ctx).
		Leakless(false).
		Headless(opts.Headless).
		NoSandbox(true).
		Set("disable-setuid-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows")

	url, err := l.Launch()
	if err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("can't launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("can't connect to browser: %w", err)
	}
	slog.Debug("browser launched", slog.String("url", url))

	return &Browser{
		launcher: l,
		browser:  browser,
		opts:     opts,
	}, nil
}

// Launcher adapts Launch to searcher.LaunchFunc.
func Launcher(opts Options) searcher.LaunchFunc {
	return func(ctx context.Context) (searcher.Browser, error) {
		return Launch(ctx, opts)
	}
}

func (b *Browser) NewPage(ctx context.Context) (searcher.Page, error) {
	incognito, err := b.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("can't create browser context: %w", err)
	}

	page, err := stealth.Page(incognito)
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("can't create page: %w", err)
	}
	err = page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1366,
		Height:            900,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		_ = page.Close()
		_ = incognito.Close()
		return nil, fmt.Errorf("can't set viewport: %w", err)
	}

	return &Page{
		incognito: incognito,
		page:      page,
		opts:      b.opts,
		driver: ngselect.Driver{
			StepTimeout:  b.opts.StepTimeout,
			PollInterval: b.opts.PollInterval,
		},
	}, nil
}

func (b *Browser) Close() error {
	err := b.browser.Close()
	if err != nil {
		b.launcher.Kill()
	}
	b.launcher.Cleanup()
	slog.Debug("browser closed")

	return err
}

type Page struct {
	incognito *rod.Browser
	page      *rod.Page
	opts      Options
	driver    ngselect.Driver
}

func (p *Page) Open(ctx context.Context, url string) error {
	page := p.page.Context(ctx).Timeout(p.opts.NavigationTimeout)
	wait := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := page.Navigate(url); err != nil {
		return err
	}
	wait()

	return nil
}

func (p *Page) Select(ctx context.Context, root string, sel model.Selection) (string, error) {
	control := ngselect.NewRodControl(p.page, root, p.opts.StepTimeout, p.opts.TypeDelay)
	return p.driver.EnsureSelected(ctx, control, sel.Text, sel.Search)
}

func (p *Page) Click(ctx context.Context, selector string) error {
	page := p.page.Context(ctx).Timeout(p.opts.StepTimeout)
	return rod.Try(func() {
		page.MustElement(selector).MustClick()
	})
}

func (p *Page) Text(ctx context.Context) (string, error) {
	res, err := p.page.Context(ctx).Eval(`() => (document.body && document.body.innerText) || ''`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// Close closes the page and disposes of its incognito context.
func (p *Page) Close() error {
	return errors.Join(p.page.Close(), p.incognito.Close())
}
