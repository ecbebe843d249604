package qrcode

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateTargetURL checks that a target is a well-formed absolute URL.
func ValidateTargetURL(target string) error {
	if target == "" {
		return fmt.Errorf("%w: target url is empty", ErrInvalidConfig)
	}

	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("%w: target url: %v", ErrInvalidConfig, err)
	}

	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: target url must be absolute", ErrInvalidConfig)
	}

	return nil
}

// NormalizeDomain lowercases a domain name and strips a trailing dot.
// Domain lookups are case-insensitive; normalizing at the edges keeps the
// stored key canonical.
func NormalizeDomain(domain string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
}

const maxSlugLength = 64

// ValidateSlug checks a custom-domain path slug: lowercase alphanumerics,
// hyphen, and underscore, at most 64 characters.
func ValidateSlug(slug string) error {
	if slug == "" || len(slug) > maxSlugLength {
		return fmt.Errorf("%w: slug must be 1-%d characters", ErrInvalidConfig, maxSlugLength)
	}

	for _, c := range slug {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return fmt.Errorf("%w: slug contains invalid character %q", ErrInvalidConfig, c)
		}
	}

	return nil
}
