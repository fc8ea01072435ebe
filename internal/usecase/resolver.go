package usecase

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shelfgear/backend/internal/domain"
)

// Package-level compiled patterns for the known product path shapes.
var asinPathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/dp/([A-Z0-9]{10})(?:[/?]|$)`),
	regexp.MustCompile(`(?i)/gp/product/([A-Z0-9]{10})(?:[/?]|$)`),
	regexp.MustCompile(`(?i)/gp/aw/d/([A-Z0-9]{10})(?:[/?]|$)`),
	regexp.MustCompile(`(?i)/exec/obidos/ASIN/([A-Z0-9]{10})(?:[/?]|$)`),
	regexp.MustCompile(`(?i)/product/([A-Z0-9]{10})(?:[/?]|$)`),
}

var asinShapeRegex = regexp.MustCompile(`(?i)^[A-Z0-9]{10}$`)

// ResolvedLinkCache remembers identifiers for previously resolved short
// links. Redirect targets are stable, so this is safe to cache; product
// metadata is not cached anywhere in the pipeline.
type ResolvedLinkCache interface {
	Get(key string) (domain.ProductIdentifier, bool)
	Set(key string, id domain.ProductIdentifier, ttl time.Duration)
}

// ResolverConfig holds configuration for the identifier resolver.
type ResolverConfig struct {
	RedirectTimeout time.Duration
	MaxRedirectHops int
	ShortLinkHosts  []string          // overrides the default short-link domains; used by tests
	LinkCache       ResolvedLinkCache // optional
	LinkCacheTTL    time.Duration
}

// Resolver extracts a canonical product identifier from any accepted URL
// form. It is pure except for the single redirect-following step used for
// shortened links.
type Resolver struct {
	httpClient     *http.Client
	maxHops        int
	shortLinkHosts map[string]bool
	linkCache      ResolvedLinkCache
	linkCacheTTL   time.Duration
}

// NewResolver creates a resolver with sane bounds on the redirect step.
func NewResolver(config ResolverConfig) *Resolver {
	timeout := config.RedirectTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	maxHops := config.MaxRedirectHops
	if maxHops <= 0 {
		maxHops = 4 // guards against redirect loops
	}

	cacheTTL := config.LinkCacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	hosts := config.ShortLinkHosts
	if hosts == nil {
		hosts = defaultShortLinkHosts
	}
	hostSet := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		hostSet[strings.ToLower(h)] = true
	}

	return &Resolver{
		httpClient: &http.Client{
			Timeout: timeout,
			// Redirects are followed manually so the hop budget and the
			// terminating-host check stay under our control.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		maxHops:        maxHops,
		shortLinkHosts: hostSet,
		linkCache:      config.LinkCache,
		linkCacheTTL:   cacheTTL,
	}
}

// Resolve extracts the canonical identifier from rawURL. Short links are
// resolved to their long form first. Two URLs for the same product always
// yield the same identifier, whatever tracking params or locale they carry.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (domain.ProductIdentifier, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return domain.ProductIdentifier{}, fmt.Errorf("%w: %q", domain.ErrInvalidProductURL, rawURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return domain.ProductIdentifier{}, fmt.Errorf("%w: scheme %q", domain.ErrInvalidProductURL, parsed.Scheme)
	}

	wasShort := r.isShortLinkHost(parsed.Host)
	if wasShort {
		cacheKey := parsed.String()
		if r.linkCache != nil {
			if id, ok := r.linkCache.Get(cacheKey); ok {
				return id, nil
			}
		}

		parsed, err = r.resolveShortLink(ctx, parsed)
		if err != nil {
			return domain.ProductIdentifier{}, err
		}

		id, err := identifierFrom(parsed)
		if err != nil {
			return domain.ProductIdentifier{}, err
		}
		if r.linkCache != nil {
			r.linkCache.Set(cacheKey, id, r.linkCacheTTL)
		}
		return id, nil
	}

	return identifierFrom(parsed)
}

// identifierFrom extracts the identifier from a long-form marketplace URL.
func identifierFrom(parsed *url.URL) (domain.ProductIdentifier, error) {
	marketplace, ok := marketplaceFor(parsed.Host)
	if !ok {
		return domain.ProductIdentifier{}, fmt.Errorf("%w: unknown host %q", domain.ErrInvalidProductURL, parsed.Host)
	}

	asin, ok := extractASIN(parsed)
	if !ok {
		return domain.ProductIdentifier{}, fmt.Errorf("%w: no product id in %q", domain.ErrInvalidProductURL, parsed.Path)
	}

	return domain.ProductIdentifier{ASIN: asin, Marketplace: marketplace}, nil
}

// isShortLinkHost reports whether the host is a known redirect domain.
func (r *Resolver) isShortLinkHost(host string) bool {
	return r.shortLinkHosts[strings.ToLower(host)]
}

// resolveShortLink follows redirects until a known marketplace host is
// reached. Fails with ErrUnresolvableLink when the hop budget runs out or the
// chain leads somewhere unknown.
func (r *Resolver) resolveShortLink(ctx context.Context, start *url.URL) (*url.URL, error) {
	current := start
	for hop := 0; hop < r.maxHops; hop++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnresolvableLink, err)
		}
		req.Header.Set("User-Agent", "ShelfGear/1.0")

		resp, err := r.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnresolvableLink, err)
		}
		resp.Body.Close()

		if resp.StatusCode < 300 || resp.StatusCode >= 400 {
			return nil, fmt.Errorf("%w: chain ended at %q with status %d",
				domain.ErrUnresolvableLink, current.Host, resp.StatusCode)
		}

		location := resp.Header.Get("Location")
		if location == "" {
			return nil, fmt.Errorf("%w: redirect without location from %q", domain.ErrUnresolvableLink, current.Host)
		}

		next, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("%w: bad redirect target %q", domain.ErrUnresolvableLink, location)
		}
		next = current.ResolveReference(next)

		if _, ok := marketplaceFor(next.Host); ok {
			log.Printf("[RESOLVE] Short link %s resolved to %s in %d hop(s)", start.Host, next.Host, hop+1)
			return next, nil
		}
		current = next
	}

	return nil, fmt.Errorf("%w: no marketplace host within %d hops", domain.ErrUnresolvableLink, r.maxHops)
}

// extractASIN pattern-matches the known path and query shapes.
func extractASIN(u *url.URL) (string, bool) {
	for _, pattern := range asinPathPatterns {
		if m := pattern.FindStringSubmatch(u.Path); m != nil {
			return strings.ToUpper(m[1]), true
		}
	}

	if asin := u.Query().Get("asin"); asinShapeRegex.MatchString(asin) {
		return strings.ToUpper(asin), true
	}

	return "", false
}
