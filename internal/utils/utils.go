// internal/utils/utils.go
package utils

import (
	"net/url"
	"strings"
)

// ExtractDomain extracts the domain from a URL
func ExtractDomain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return u.Host, nil
}

// IsValidURL checks if a string is an absolute http(s) URL
func IsValidURL(str string) bool {
	u, err := url.Parse(str)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// IsNavigableURL checks if a browser can open str. Besides http(s) it
// accepts data:, file: and about: URLs.
func IsNavigableURL(str string) bool {
	if IsValidURL(str) {
		return true
	}
	u, err := url.Parse(str)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "data", "file", "about":
		return true
	default:
		return false
	}
}
