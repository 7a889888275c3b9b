package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Tab is the slice of a browser page the crawler drives. Errors caused by a
// timeout wrap ErrTimeout.
type Tab interface {
	Goto(url string, timeout time.Duration) error
	WaitForSelector(selector string, timeout time.Duration) error
	Count(selector string) (int, error)
	SelectOption(selector, value string, timeout time.Duration) error
	Click(selector string, timeout time.Duration) error
	WaitForLoad(timeout time.Duration) error
	Content() (string, error)
	URL() string
	Screenshot(path string) error
	Close() error
}

type pageTab struct {
	page playwright.Page
	bctx playwright.BrowserContext
}

// WrapPage adapts a playwright page that the caller owns.
func WrapPage(page playwright.Page) Tab {
	return &pageTab{page: page}
}

func ms(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func (t *pageTab) Goto(url string, timeout time.Duration) error {
	_, err := t.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   ms(timeout),
	})
	return wrapErr(err)
}

func (t *pageTab) WaitForSelector(selector string, timeout time.Duration) error {
	return wrapErr(t.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: ms(timeout),
	}))
}

func (t *pageTab) Count(selector string) (int, error) {
	n, err := t.page.Locator(selector).Count()
	return n, wrapErr(err)
}

func (t *pageTab) SelectOption(selector, value string, timeout time.Duration) error {
	_, err := t.page.Locator(selector).First().SelectOption(playwright.SelectOptionValues{
		Values: &[]string{value},
	}, playwright.LocatorSelectOptionOptions{Timeout: ms(timeout)})
	return wrapErr(err)
}

func (t *pageTab) Click(selector string, timeout time.Duration) error {
	return wrapErr(t.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: ms(timeout),
	}))
}

func (t *pageTab) WaitForLoad(timeout time.Duration) error {
	return wrapErr(t.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: ms(timeout),
	}))
}

func (t *pageTab) Content() (string, error) {
	html, err := t.page.Content()
	return html, wrapErr(err)
}

func (t *pageTab) URL() string {
	return t.page.URL()
}

func (t *pageTab) Screenshot(path string) error {
	_, err := t.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

// Close closes the page and, for session pages, its browser context.
func (t *pageTab) Close() error {
	err := t.page.Close()
	if t.bctx != nil {
		err = errors.Join(err, t.bctx.Close())
	}
	return err
}
