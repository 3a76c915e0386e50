package utils

import (
	"crypto/subtle"
	"net/url"
	"strings"
)

// SecureCompare reports whether a and b are equal without leaking timing information.
// An empty expected value never matches.
func SecureCompare(given, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(expected)) == 1
}

// IsValidPublicID checks an image-host identifier: a-z, A-Z, 0-9, '-', '_', '/', '.', '@'.
// No empty path segments and no "..".
func IsValidPublicID(id string) bool {
	if id == "" || len(id) > 255 {
		return false
	}
	if strings.HasPrefix(id, "/") || strings.HasSuffix(id, "/") ||
		strings.Contains(id, "//") || strings.Contains(id, "..") {
		return false
	}

	for _, r := range id {
		if (r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '-' || r == '_' ||
			r == '/' || r == '.' || r == '@' {
			continue
		}
		return false
	}
	return true
}

// IsAllowedOrigin matches origin against the configured allow-list patterns.
func IsAllowedOrigin(origin string, allowedPatterns []string) bool {
	if origin == "" {
		return false
	}
	cleanOrigin := getCleanOrigin(origin)

	for _, pattern := range allowedPatterns {
		if MatchOrigin(cleanOrigin, pattern) {
			return true
		}
	}
	return false
}

func getCleanOrigin(originURL string) string {
	u, err := url.Parse(originURL)
	if err != nil {
		return originURL
	}

	if u.Scheme != "" && u.Host != "" {
		return u.Scheme + "://" + u.Host
	}

	return originURL
}

// MatchOrigin supports "*", exact origins, "https://**.example.com" (domain and
// subdomains) and "https://*.example.com" (subdomains only).
func MatchOrigin(origin, pattern string) bool {
	if pattern == "*" {
		return true
	}

	if origin == pattern {
		return true
	}

	if strings.Contains(pattern, "**.") {
		base := strings.Replace(pattern, "**.", "", 1)
		if origin == base {
			return true
		}

		domainPart := removeProtocol(base)
		if strings.HasSuffix(origin, "."+domainPart) {
			return true
		}
		return false
	}

	if strings.Contains(pattern, "*.") {
		parts := strings.Split(pattern, "*")
		if len(parts) == 2 {
			prefix := parts[0]
			suffix := parts[1]

			if len(origin) > len(prefix)+len(suffix) &&
				strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
				middle := origin[len(prefix) : len(origin)-len(suffix)]
				if !strings.Contains(middle, "/") {
					return true
				}
			}
		}
	}

	return false
}

func removeProtocol(urlStr string) string {
	urlStr = strings.TrimPrefix(urlStr, "https://")
	return strings.TrimPrefix(urlStr, "http://")
}
