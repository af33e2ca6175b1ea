package fetch

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/publicsuffix"
)

// NormalizeURL resolves a possibly-relative URL against a base and strips
// the fragment. The result is the canonical form used for visited/queued
// bookkeeping.
func NormalizeURL(raw, base string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", eris.Wrapf(err, "fetch: parse base url %s", base)
	}
	u, err := b.Parse(raw)
	if err != nil {
		return "", eris.Wrapf(err, "fetch: parse url %s", raw)
	}
	u.Fragment = ""
	return u.String(), nil
}

// RegistrableDomain returns the registrable domain of a URL, ignoring
// subdomains (shop.example.com -> example.com). Falls back to the bare
// hostname when the public suffix list has no answer (localhost, IPs).
func RegistrableDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}

// SameSite reports whether two URLs share a registrable domain.
func SameSite(a, b string) bool {
	da := RegistrableDomain(a)
	return da != "" && da == RegistrableDomain(b)
}
