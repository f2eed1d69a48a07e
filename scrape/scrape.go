package scrape

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://www.investing.com"

type Scraper struct {
	baseURL string
	client  *http.Client
	browser bool
	wait    time.Duration
	policy  *bluemonday.Policy
	lg      zerolog.Logger
}

type Option func(*Scraper) error

// Functional Option Pattern
func NewScraper(options ...Option) (*Scraper, error) {
	s := &Scraper{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		policy:  bluemonday.StrictPolicy(),
		lg:      zerolog.New(os.Stdout).With().Str("Module", "Scraper").Timestamp().Logger(),
	}
	for _, opt := range options {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to create Scraper %w", err)
		}
	}
	return s, nil
}

func WithBaseURL(url string) Option {
	return func(s *Scraper) error {
		url = strings.TrimRight(strings.TrimSpace(url), "/")
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			return fmt.Errorf("base url must be http(s): %q", url)
		}
		s.baseURL = url
		return nil
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(s *Scraper) error {
		if client == nil {
			return errors.New("http client 미존재")
		}
		s.client = client
		return nil
	}
}

// WithBrowser renders calendar pages with headless Chrome before parsing. wait is how long
// to let client side scripts fill the table.
func WithBrowser(wait time.Duration) Option {
	return func(s *Scraper) error {
		s.browser = true
		s.wait = wait
		return nil
	}
}

func (s *Scraper) document(ctx context.Context, url string) (*goquery.Document, error) {
	if s.browser {
		return s.renderedDocument(ctx, url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error requesting %s\n%w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code error: %d %s", res.StatusCode, res.Status)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error creating document\n%w", err)
	}
	return doc, nil
}

func (s *Scraper) renderedDocument(ctx context.Context, url string) (*goquery.Document, error) {

	cctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var htmlContent string
	err := chromedp.Run(cctx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.Sleep(s.wait),
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s. check chrome browser exists\n%w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("error creating document\n%w", err)
	}
	return doc, nil
}

// text returns the visible text of a cell with markup and stray whitespace removed.
// memo. bluemonday 는 결과를 html escape 하므로 다시 unescape 해서 저장
func (s *Scraper) text(sel *goquery.Selection) string {
	raw, _ := sel.Html()
	clean := html.UnescapeString(s.policy.Sanitize(raw))
	return strings.Join(strings.Fields(clean), " ")
}
