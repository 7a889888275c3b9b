// browser-check opens the listing page once and reports what the crawler
// would see. Use it to verify the playwright install, cookies and selectors.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"go-jobspider/internal/browser"
	"go-jobspider/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/spider.yaml", "path to the YAML config")
	url := flag.String("url", "", "page to open (defaults to the configured base URL)")
	flag.Parse()

	fmt.Println("🌐 Testing browser session...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	target := cfg.Spider.BaseURL
	if *url != "" {
		target = *url
	}

	opts := browser.PageOptions{
		UserAgent: cfg.Spider.UserAgent,
		Width:     cfg.Spider.ViewportWidth,
		Height:    cfg.Spider.ViewportHeight,
	}
	if cfg.CookiesPath != "" {
		cookies, err := browser.LoadCookies(cfg.CookiesPath)
		if err != nil {
			log.Fatalf("Failed to load cookies: %v", err)
		}
		opts.Cookies = cookies
		fmt.Printf("✅ Loaded %d cookies\n", len(cookies))
	}

	ctx := context.Background()
	session := browser.NewSession(browser.PlaywrightLauncher(cfg.Spider.Headless), opts)
	defer session.Shutdown()

	if err := session.EnsureStarted(ctx); err != nil {
		log.Fatalf("Failed to launch browser: %v", err)
	}
	fmt.Println("✅ Browser started")

	tab, err := session.NewPage(ctx)
	if err != nil {
		log.Fatalf("Failed to create page: %v", err)
	}
	defer tab.Close()

	fmt.Printf("🔍 Navigating to %s\n", target)
	if err := tab.Goto(target, cfg.Spider.NavigationTimeout); err != nil {
		log.Printf("Navigation did not finish cleanly: %v", err)
	}

	cards := strings.Join(cfg.Spider.Selectors.ResultCard, ", ")
	if err := tab.WaitForSelector(cards, cfg.Spider.WaitTimeout); err != nil {
		log.Printf("No result cards yet: %v", err)
	}
	n, err := tab.Count(cards)
	if err != nil {
		log.Printf("Failed to count result cards: %v", err)
	}
	fmt.Printf("✅ Landed on %s with %d result cards\n", tab.URL(), n)

	path, err := browser.NewScreenshotDebugger(cfg.ScreenshotDir).CaptureAndLog(tab, "browser-check", "Capturing landing page")
	if err != nil {
		log.Printf("Failed to take screenshot: %v", err)
	} else {
		fmt.Printf("📸 Screenshot saved: %s\n", path)
	}
	fmt.Println("✨ Check complete!")
}
