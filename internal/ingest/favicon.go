package ingest

import (
	"fmt"
	"net/url"
	"strings"
)

// Favicons derives icon URLs from page hostnames through an icon service.
// The template receives the hostname as its only verb.
type Favicons struct {
	template string
}

// NewFavicons returns a deriver for the given service template. An empty
// template disables icons.
func NewFavicons(template string) *Favicons {
	return &Favicons{template: template}
}

// For returns the icon URL for rawURL, or "" when no hostname can be parsed
func (f *Favicons) For(rawURL string) string {
	if f == nil || f.template == "" {
		return ""
	}
	host := hostname(rawURL)
	if host == "" {
		return ""
	}
	return fmt.Sprintf(f.template, url.QueryEscape(host))
}

func hostname(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if u.Host == "" && u.Scheme == "" {
		// bare hostnames such as "example.com/page"
		u, err = url.Parse("https://" + rawURL)
		if err != nil {
			return ""
		}
	}
	return u.Hostname()
}
