package utils

import (
	"net/url"
	"strings"
)

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(relative)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(relURL).String(), nil
}

// ResolveURL normalizes a reference found on pageURL. Protocol-relative
// references get an https scheme, references with a scheme pass through and
// anything else is resolved against the page. Unparsable input is returned as is.
func ResolveURL(ref, pageURL string) string {
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return ref
	}
	abs, err := ToAbsoluteURL(base, ref)
	if err != nil {
		return ref
	}
	return abs
}

// IsNetworkURL reports whether rawURL is an http or https URL with a host.
func IsNetworkURL(rawURL string) bool {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Host != ""
}
