package utils

import (
	"errors"
	"strings"

	"github.com/likexian/whois"
)

// DomainChecker reports whether a domain is registered.
type DomainChecker interface {
	Registered(domain string) (bool, error)
}

type WhoisDomainChecker struct{}

var notFoundMarkers = []string{
	"no match for",
	"not found",
	"no data found",
	"no entries found",
	"domain not found",
	"status: free",
}

func (WhoisDomainChecker) Registered(domain string) (bool, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false, errors.New("empty domain")
	}
	raw, err := whois.Whois(domain)
	if err != nil {
		return false, err
	}
	lower := strings.ToLower(raw)
	for _, marker := range notFoundMarkers {
		if strings.Contains(lower, marker) {
			return false, nil
		}
	}
	return true, nil
}
