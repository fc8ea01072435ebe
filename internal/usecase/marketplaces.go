package usecase

import "strings"

// marketplaceHosts maps storefront hostnames to their marketplace code. The
// host list is a curated subset of regional Amazon storefronts; the code is
// carried on the identifier only as a locale hint.
var marketplaceHosts = map[string]string{
	"amazon.com":    "US",
	"amazon.ca":     "CA",
	"amazon.co.uk":  "GB",
	"amazon.de":     "DE",
	"amazon.fr":     "FR",
	"amazon.es":     "ES",
	"amazon.it":     "IT",
	"amazon.in":     "IN",
	"amazon.co.jp":  "JP",
	"amazon.com.au": "AU",
	"amazon.com.br": "BR",
	"amazon.com.mx": "MX",
	"amazon.ae":     "AE",
	"amazon.sg":     "SG",
}

// defaultShortLinkHosts are known redirect domains for shortened product links.
var defaultShortLinkHosts = []string{
	"amzn.to",
	"amzn.eu",
	"amzn.asia",
	"a.co",
}

// marketplaceFor returns the marketplace code for a hostname, stripping any
// leading "www." or mobile subdomain first.
func marketplaceFor(host string) (string, bool) {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "smile.")
	host = strings.TrimPrefix(host, "m.")
	code, ok := marketplaceHosts[host]
	return code, ok
}
