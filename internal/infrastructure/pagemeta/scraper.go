package pagemeta

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shelfgear/backend/internal/domain"
)

// ProviderName tags metadata scraped from the product page itself. Downstream
// consumers surface it as provenance: page metadata is less precise than the
// structured API.
const ProviderName = "page-metadata"

// storefrontHosts maps marketplace codes back to the storefront used for
// page fetches. Unknown codes fall back to the US storefront.
var storefrontHosts = map[string]string{
	"US": "www.amazon.com",
	"CA": "www.amazon.ca",
	"GB": "www.amazon.co.uk",
	"DE": "www.amazon.de",
	"FR": "www.amazon.fr",
	"ES": "www.amazon.es",
	"IT": "www.amazon.it",
	"IN": "www.amazon.in",
	"JP": "www.amazon.co.jp",
	"AU": "www.amazon.com.au",
	"BR": "www.amazon.com.br",
	"MX": "www.amazon.com.mx",
	"AE": "www.amazon.ae",
	"SG": "www.amazon.sg",
}

// Scraper is the fallback metadata provider. It fetches the product page and
// pulls title, description and image out of its meta tags.
type Scraper struct {
	httpClient *http.Client
	baseURL    string // overrides the storefront host when set; used by tests
	userAgents []string
}

// NewScraper creates a page-metadata scraper with a bounded timeout and a
// small pool of realistic user agents.
func NewScraper(timeout time.Duration) *Scraper {
	if timeout == 0 {
		timeout = 20 * time.Second
	}

	return &Scraper{
		httpClient: &http.Client{Timeout: timeout},
		userAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		},
	}
}

// SetBaseURL points the scraper at a fixed base URL instead of the regional
// storefront hosts.
func (s *Scraper) SetBaseURL(baseURL string) {
	s.baseURL = strings.TrimRight(baseURL, "/")
}

// Name implements domain.MetadataProvider.
func (s *Scraper) Name() string {
	return ProviderName
}

// TryFetch scrapes the product page for the identifier. Transport failures,
// non-OK statuses and bot-detection pages wrap ErrProviderUnavailable.
func (s *Scraper) TryFetch(ctx context.Context, id domain.ProductIdentifier) (*domain.ProductMetadata, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("%w: empty identifier", domain.ErrInvalidRequest)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL(id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent())
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: page fetch status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse page: %v", domain.ErrProviderUnavailable, err)
	}

	if isBotCheck(doc) {
		return nil, fmt.Errorf("%w: storefront requested captcha verification", domain.ErrProviderUnavailable)
	}

	meta := extractMetadata(doc, id)
	if meta.Title == "" {
		return nil, fmt.Errorf("%w: no product metadata found on page", domain.ErrProviderUnavailable)
	}

	log.Printf("[PAGEMETA] Scraped %s: %q (image: %v)", id.Key(), meta.Title, meta.ImageURL != "")
	return meta, nil
}

// pageURL builds the product page URL for the identifier's marketplace.
func (s *Scraper) pageURL(id domain.ProductIdentifier) string {
	if s.baseURL != "" {
		return fmt.Sprintf("%s/dp/%s", s.baseURL, id.ASIN)
	}
	host, ok := storefrontHosts[strings.ToUpper(id.Marketplace)]
	if !ok {
		host = storefrontHosts["US"]
	}
	return fmt.Sprintf("https://%s/dp/%s", host, id.ASIN)
}

func (s *Scraper) userAgent() string {
	if len(s.userAgents) == 0 {
		return "Mozilla/5.0 (compatible; shelfgear/1.0)"
	}
	idx := int(time.Now().UnixNano()) % len(s.userAgents)
	if idx < 0 {
		idx = -idx
	}
	return s.userAgents[idx]
}

// extractMetadata pulls title, description and image from the page.
// Priority: og: tags, then twitter: tags, then the product page elements.
func extractMetadata(doc *goquery.Document, id domain.ProductIdentifier) *domain.ProductMetadata {
	title := metaContent(doc, `meta[property="og:title"]`)
	if title == "" {
		title = metaContent(doc, `meta[name="twitter:title"]`)
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("#productTitle").First().Text())
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	description := metaContent(doc, `meta[property="og:description"]`)
	if description == "" {
		description = metaContent(doc, `meta[name="description"]`)
	}

	image := metaContent(doc, `meta[property="og:image"]`)
	if image == "" {
		image, _ = doc.Find("#landingImage").First().Attr("src")
		image = strings.TrimSpace(image)
	}

	return &domain.ProductMetadata{
		Identifier:  id,
		Title:       title,
		Description: description,
		ImageURL:    image,
		Provider:    ProviderName,
	}
}

// metaContent returns the trimmed content attribute of the first matching tag.
func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// isBotCheck detects the storefront's captcha interstitial.
func isBotCheck(doc *goquery.Document) bool {
	title := strings.ToLower(doc.Find("title").First().Text())
	if strings.Contains(title, "robot check") || strings.Contains(title, "captcha") {
		return true
	}
	if doc.Find(`form[action*="validateCaptcha"]`).Length() > 0 {
		return true
	}
	return false
}
