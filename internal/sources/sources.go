// Package sources describes the external listing platforms a compiled query
// can target: how each one is scoped, how many pages it gets, which hit URLs
// count as profiles and how a candidate name is read off a hit title.
package sources

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Destination identifies one listing platform.
type Destination string

const (
	// ProfessionalNetwork is the LinkedIn public profile directory.
	ProfessionalNetwork Destination = "professional-network"
	// FreelanceMarketplace is the Upwork freelancer directory.
	FreelanceMarketplace Destination = "freelance-marketplace"
	// CodeHosting is GitHub user pages.
	CodeHosting Destination = "code-hosting"
)

// DefaultDestinations are searched when a request names none.
var DefaultDestinations = []Destination{ProfessionalNetwork, FreelanceMarketplace}

// Config is the per-destination behavior.
type Config struct {
	Destination Destination
	// Label is the short platform name used in logs and history.
	Label string
	// PageBudget is the base number of provider pages, before the tier multiplier.
	PageBudget int
	// Flatten rewrites nested OR-groups the platform's query grammar rejects.
	Flatten bool
	// SkipOnOwnerIntent drops the platform for owner/founder or non-freelancer prompts.
	SkipOnOwnerIntent bool

	scope     func(countryCode string) string
	profile   func(u *url.URL) (string, bool)
	nameTitle func(title string) string
}

var configs = map[Destination]*Config{
	ProfessionalNetwork: {
		Destination: ProfessionalNetwork,
		Label:       "linkedin",
		PageBudget:  3,
		scope: func(cc string) string {
			if cc == "" {
				return "site:linkedin.com/in"
			}
			return "site:" + cc + ".linkedin.com/in"
		},
		profile:   linkedInProfile,
		nameTitle: splitTitleName,
	},
	FreelanceMarketplace: {
		Destination:       FreelanceMarketplace,
		Label:             "upwork",
		PageBudget:        2,
		Flatten:           true,
		SkipOnOwnerIntent: true,
		scope:             func(string) string { return "site:upwork.com/freelancers" },
		profile:           upworkProfile,
		nameTitle:         splitTitleName,
	},
	CodeHosting: {
		Destination: CodeHosting,
		Label:       "github",
		PageBudget:  2,
		scope:       func(string) string { return "site:github.com" },
		profile:     githubProfile,
		nameTitle:   githubTitleName,
	},
}

// Lookup returns the configuration for a destination.
func Lookup(d Destination) (*Config, bool) {
	c, ok := configs[d]
	return c, ok
}

// Parse validates a destination name.
func Parse(s string) (Destination, error) {
	d := Destination(strings.TrimSpace(strings.ToLower(s)))
	if _, ok := configs[d]; !ok {
		return "", fmt.Errorf("unknown destination %q", s)
	}
	return d, nil
}

// All returns every known destination in a stable order.
func All() []Destination {
	return []Destination{ProfessionalNetwork, FreelanceMarketplace, CodeHosting}
}

// ScopeToken is the restriction clause for this destination, localized by
// country code where the platform supports it.
func (c *Config) ScopeToken(countryCode string) string {
	return c.scope(countryCode)
}

// Profile reports whether link is a profile page for this destination and
// returns its canonical URL.
func (c *Config) Profile(link string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return "", false
	}
	return c.profile(u)
}

// CandidateName reads a person's name from a provider hit title.
func (c *Config) CandidateName(title string) string {
	return c.nameTitle(title)
}

func hostMatches(u *url.URL, domain string) bool {
	host := strings.ToLower(u.Hostname())
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func pathSegments(u *url.URL) []string {
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func linkedInProfile(u *url.URL) (string, bool) {
	if !hostMatches(u, "linkedin.com") {
		return "", false
	}
	segs := pathSegments(u)
	if len(segs) < 2 || segs[0] != "in" {
		return "", false
	}
	return "https://www.linkedin.com/in/" + strings.ToLower(segs[1]), true
}

func upworkProfile(u *url.URL) (string, bool) {
	if !hostMatches(u, "upwork.com") {
		return "", false
	}
	segs := pathSegments(u)
	if len(segs) < 2 || segs[0] != "freelancers" {
		return "", false
	}
	return "https://www.upwork.com/freelancers/" + segs[1], true
}

// githubReserved are top-level paths that are not user accounts.
var githubReserved = map[string]bool{
	"about": true, "apps": true, "collections": true, "contact": true, "customer-stories": true,
	"enterprise": true, "events": true, "explore": true, "features": true, "join": true,
	"login": true, "marketplace": true, "nonprofit": true, "orgs": true, "pricing": true,
	"readme": true, "search": true, "security": true, "settings": true, "site": true,
	"sponsors": true, "team": true, "topics": true, "trending": true,
}

var githubUser = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,37}[A-Za-z0-9])?$`)

func githubProfile(u *url.URL) (string, bool) {
	if strings.ToLower(u.Hostname()) != "github.com" && strings.ToLower(u.Hostname()) != "www.github.com" {
		return "", false
	}
	segs := pathSegments(u)
	if len(segs) != 1 {
		return "", false
	}
	user := strings.ToLower(segs[0])
	if githubReserved[user] || !githubUser.MatchString(user) {
		return "", false
	}
	return "https://github.com/" + user, true
}

var titleSeparators = regexp.MustCompile(`\s+[-–—|·]\s+`)

// splitTitleName takes the leading segment of "Name - Headline | Site" titles.
func splitTitleName(title string) string {
	parts := titleSeparators.Split(strings.TrimSpace(title), 2)
	return strings.TrimSpace(parts[0])
}

var githubParenName = regexp.MustCompile(`\(([^)]+)\)`)

// githubTitleName handles "login (Full Name) · GitHub".
func githubTitleName(title string) string {
	if m := githubParenName.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1])
	}
	return splitTitleName(title)
}
