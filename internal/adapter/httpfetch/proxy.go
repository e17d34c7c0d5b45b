package httpfetch

import (
	"net/http"
	"net/url"
	"sync"
)

// ProxyManager rotates outbound proxies sequentially.
type ProxyManager struct {
	mu      sync.Mutex
	proxies []*url.URL
	index   int
}

// NewProxyManager parses the proxy URLs. Entries that do not parse are skipped.
func NewProxyManager(rawURLs []string) *ProxyManager {
	pm := &ProxyManager{}
	for _, raw := range rawURLs {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}
		pm.proxies = append(pm.proxies, u)
	}
	return pm
}

func (m *ProxyManager) Len() int {
	return len(m.proxies)
}

// Next returns the next proxy, or nil when none are configured.
func (m *ProxyManager) Next() *url.URL {
	if len(m.proxies) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	proxy := m.proxies[m.index]
	m.index = (m.index + 1) % len(m.proxies)
	return proxy
}

// ProxyFunc adapts the manager to http.Transport.Proxy.
func (m *ProxyManager) ProxyFunc() func(*http.Request) (*url.URL, error) {
	return func(*http.Request) (*url.URL, error) {
		return m.Next(), nil
	}
}
