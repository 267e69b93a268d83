package zoopla

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"house-price-pipeline/config"
	"house-price-pipeline/models"
	"house-price-pipeline/utils"
)

const baseURL = "https://www.zoopla.co.uk"

// Scraper orchestrates the Zoopla collection process: one search crawl per
// property type, then detail-page enrichment through the worker pool.
type Scraper struct {
	cfg        *config.Config
	logger     *utils.Logger
	pool       *utils.WorkerPool
	visitedURL *utils.URLSet
	retry      *utils.RetryConfig

	mu       sync.Mutex
	listings []*models.RawListing
}

// New creates a ready-to-use Zoopla Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:        cfg,
		logger:     logger,
		pool:       utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		visitedURL: utils.NewURLSet(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			MaxDelay:    30 * time.Second,
			Logger:      logger,
		},
		listings: make([]*models.RawListing, 0),
	}
}

// Scrape walks every configured property type through its paginated search
// results and returns the collected raw listings.
func (s *Scraper) Scrape() ([]*models.RawListing, error) {
	s.logger.Info("[zoopla] Starting scrape — %d property types, up to %d pages each",
		len(s.cfg.PropertyTypes), s.cfg.PagesToScrape)

	chromeBin := findChromeBinary()
	s.logger.Info("[zoopla] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	silentCtx, cancelSilent := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelSilent()
	allocCtx = silentCtx

	for _, propertyType := range s.cfg.PropertyTypes {
		if err := s.scrapePropertyType(allocCtx, propertyType); err != nil {
			s.logger.Error("[zoopla] Property type %q failed: %v", propertyType, err)
		}
	}

	s.logger.Info("[zoopla] Scrape complete — total raw listings: %d", len(s.listings))
	return s.listings, nil
}

// scrapePropertyType paginates the search results for one property type.
func (s *Scraper) scrapePropertyType(allocCtx context.Context, propertyType string) error {
	for page := 1; page <= s.cfg.PagesToScrape; page++ {
		searchURL := fmt.Sprintf(
			"%s/for-sale/property/england/?property_type=%s&pn=%d",
			baseURL, propertyType, page)
		s.logger.Info("[zoopla] Scraping %s page %d", propertyType, page)

		cards, err := s.scrapeSearchPage(allocCtx, searchURL, page)
		if err != nil {
			return err
		}
		if len(cards) == 0 {
			s.logger.Info("[zoopla] %s: no more results after page %d", propertyType, page-1)
			return nil
		}

		pageListings := s.collectCards(cards, propertyType)
		s.enrichListings(allocCtx, pageListings)

		s.mu.Lock()
		s.listings = append(s.listings, pageListings...)
		total := len(s.listings)
		s.mu.Unlock()

		s.logger.Info("[zoopla] %s page %d done — %d listings so far", propertyType, page, total)
	}
	return nil
}

// collectCards turns search cards into raw listings, skipping URLs seen on
// earlier pages or under other property types.
func (s *Scraper) collectCards(cards []searchCard, propertyType string) []*models.RawListing {
	listings := make([]*models.RawListing, 0, len(cards))
	for _, c := range cards {
		if !s.visitedURL.Add(c.DetailURL) {
			s.logger.Debug("[zoopla] Skipping duplicate: %s", c.DetailURL)
			continue
		}
		listings = append(listings, &models.RawListing{
			URL:             c.DetailURL,
			RawPropertyType: propertyType,
			RawPrice:        c.RawPrice,
			DisplayAddress:  c.Address,
			ScrapedAt:       time.Now(),
		})
	}
	return listings
}

// scrapeSearchPage loads one search results page and parses its cards.
func (s *Scraper) scrapeSearchPage(allocCtx context.Context, pageURL string, pageNum int) ([]searchCard, error) {
	var cards []searchCard

	err := s.retry.Do(fmt.Sprintf("search-page-%d", pageNum), func() error {
		html, err := s.renderPage(allocCtx, pageURL, 90*time.Second)
		if err != nil {
			return err
		}
		cards, err = parseSearchHTML(html, baseURL)
		return err
	})
	return cards, err
}

// enrichListings visits detail pages to fill the fields search cards lack
// (postcode, beds/baths/receptions, floor area, description).
func (s *Scraper) enrichListings(allocCtx context.Context, listings []*models.RawListing) {
	for _, listing := range listings {
		l := listing
		s.pool.Submit(func() {
			err := s.retry.Do("detail-page", func() error {
				html, rerr := s.renderPage(allocCtx, l.URL, 60*time.Second)
				if rerr != nil {
					return rerr
				}
				return parseDetailHTML(html, l)
			})
			if err != nil {
				s.logger.Warn("[zoopla] Detail page failed for %s: %v", l.URL, err)
				return
			}
			s.logger.Debug("[zoopla] Enriched: %s (%s)", l.DisplayAddress, l.Postcode)
		})
	}
	s.pool.Wait()
}

// renderPage navigates to a URL in a fresh tab and returns the rendered HTML.
func (s *Scraper) renderPage(allocCtx context.Context, url string, timeout time.Duration) (string, error) {
	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(4*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp render %s: %w", url, err)
	}
	return html, nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
