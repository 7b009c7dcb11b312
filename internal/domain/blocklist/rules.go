// Package blocklist maintains the append-only set of blocked domain
// suffixes: seeded from a bundled fallback list, merged from a persisted
// cache, and refreshed from a remote hosts-format source.
package blocklist

import (
	"sort"
	"strings"
	"sync"
)

// RuleSet is a set of normalized lowercase domains. Membership only grows
// during a session; readers tolerate eventually-consistent merges, so a
// plain RWMutex suffices.
type RuleSet struct {
	mu      sync.RWMutex
	domains map[string]struct{}
}

// NewRuleSet creates an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{domains: make(map[string]struct{})}
}

// Bootstrap seeds the set from the bundled fallback list. It is synchronous
// so the first network requests are already protected before any I/O.
func (r *RuleSet) Bootstrap() {
	r.AddAll(FallbackDomains())
}

// Add inserts one domain after normalization. Empty input is ignored.
func (r *RuleSet) Add(domain string) {
	d := Normalize(domain)
	if d == "" {
		return
	}
	r.mu.Lock()
	r.domains[d] = struct{}{}
	r.mu.Unlock()
}

// AddAll merges a batch of domains.
func (r *RuleSet) AddAll(domains []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, domain := range domains {
		if d := Normalize(domain); d != "" {
			r.domains[d] = struct{}{}
		}
	}
}

// Has reports exact membership of a normalized domain. Suffix walking is
// the decision engine's job; the set only answers point queries.
func (r *RuleSet) Has(domain string) bool {
	d := Normalize(domain)
	r.mu.RLock()
	_, ok := r.domains[d]
	r.mu.RUnlock()
	return ok
}

// Len returns the number of rules.
func (r *RuleSet) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.domains)
}

// Snapshot returns the rules in sorted order, for persistence and debugging.
func (r *RuleSet) Snapshot() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.domains))
	for d := range r.domains {
		out = append(out, d)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Reset drops every rule. Only the bootstrap sequence calls this, after a
// corrupted cache forced a full re-seed.
func (r *RuleSet) Reset() {
	r.mu.Lock()
	r.domains = make(map[string]struct{})
	r.mu.Unlock()
}

// Normalize lowercases a domain and strips surrounding whitespace and any
// trailing dot. Returns "" for values that cannot be a domain.
func Normalize(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimSuffix(d, ".")
	if d == "" || strings.ContainsAny(d, " \t/") {
		return ""
	}
	return d
}
