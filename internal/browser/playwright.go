package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrNotInitialized is returned when a page is requested before launch.
	ErrNotInitialized = errors.New("browser not initialized")
	// ErrTimeout marks a navigation or wait that ran out of time.
	ErrTimeout = errors.New("browser timeout")
)

// Launcher starts a browser process. stop releases the driver after the
// browser has been closed and may be nil.
type Launcher func() (b playwright.Browser, stop func() error, err error)

// PlaywrightLauncher runs the playwright driver and launches Chromium.
func PlaywrightLauncher(headless bool) Launcher {
	return func() (playwright.Browser, func() error, error) {
		pw, err := playwright.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("could not start playwright: %w", err)
		}
		b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(headless),
			Args: []string{
				"--disable-blink-features=AutomationControlled",
				"--no-sandbox",
			},
		})
		if err != nil {
			_ = pw.Stop()
			return nil, nil, fmt.Errorf("could not launch chromium browser: %w", err)
		}
		return b, pw.Stop, nil
	}
}

// PageOptions configures every page handed out by a Session.
type PageOptions struct {
	UserAgent string
	Width     int
	Height    int
	Cookies   []playwright.OptionalCookie
}

// Session owns one browser process. It is launched lazily, shared by every
// page, and torn down by Shutdown.
type Session struct {
	launch Launcher
	opts   PageOptions

	// launches collapses concurrent EnsureStarted calls onto one launch
	launches singleflight.Group

	mu      sync.Mutex
	browser playwright.Browser
	stop    func() error
}

func NewSession(launch Launcher, opts PageOptions) *Session {
	return &Session{launch: launch, opts: opts}
}

// Started reports whether a browser is currently running.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.browser != nil
}

// EnsureStarted launches the browser once. Callers arriving while a launch is
// in flight wait for that same launch. A failed launch is not cached, so a
// later call tries again.
func (s *Session) EnsureStarted(ctx context.Context) error {
	if s.Started() {
		return nil
	}

	ch := s.launches.DoChan("launch", func() (any, error) {
		if s.Started() {
			return nil, nil
		}
		b, stop, err := s.launch()
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.browser, s.stop = b, stop
		s.mu.Unlock()
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewPage opens a fresh browser context and page with the session's user
// agent, viewport and cookies.
func (s *Session) NewPage(ctx context.Context) (Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	b := s.browser
	s.mu.Unlock()
	if b == nil {
		return nil, ErrNotInitialized
	}

	opts := playwright.BrowserNewContextOptions{}
	if s.opts.UserAgent != "" {
		opts.UserAgent = playwright.String(s.opts.UserAgent)
	}
	if s.opts.Width > 0 && s.opts.Height > 0 {
		opts.Viewport = &playwright.Size{Width: s.opts.Width, Height: s.opts.Height}
	}
	bctx, err := b.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}
	if len(s.opts.Cookies) > 0 {
		if err := bctx.AddCookies(s.opts.Cookies); err != nil {
			_ = bctx.Close()
			return nil, fmt.Errorf("could not add cookies: %w", err)
		}
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	return &pageTab{page: page, bctx: bctx}, nil
}

// Shutdown closes the browser and stops the driver. Calling it on a session
// that was never started, or twice, does nothing.
func (s *Session) Shutdown() error {
	s.mu.Lock()
	b, stop := s.browser, s.stop
	s.browser, s.stop = nil, nil
	s.mu.Unlock()

	if b == nil {
		return nil
	}
	var errs []error
	if err := b.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if stop != nil {
		if err := stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}
