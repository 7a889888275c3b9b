package spider

import (
	"errors"

	"go-jobspider/internal/browser"
)

var (
	// ErrNotInitialized: a page was requested before the browser launched.
	ErrNotInitialized = browser.ErrNotInitialized
	// ErrNavigationTimeout is logged and tolerated; the crawl continues with
	// whatever the page managed to load.
	ErrNavigationTimeout = errors.New("navigation timeout")
	ErrNavigationFailure = errors.New("navigation failed")
	// ErrNoResultsFound: zero result cards after the fallback count. An empty
	// result set cannot be told apart from a broken page, so it is fatal.
	ErrNoResultsFound    = errors.New("no results found")
	ErrMissingDetailURL  = errors.New("listing has no detail url")
	ErrExtractionFailure = errors.New("extraction failed")
)
