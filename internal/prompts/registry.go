package prompts

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/mod/semver"
)

// PromptRegistry holds the prompt texts for every oracle operation, keyed by
// ID and then by semantic version.
type PromptRegistry struct {
	mu      sync.RWMutex
	prompts map[string]map[PromptVersion]*Prompt
}

var (
	defaultRegistry     *PromptRegistry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry the built-in prompts
// register into.
func DefaultRegistry() *PromptRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewPromptRegistry()
	})
	return defaultRegistry
}

func NewPromptRegistry() *PromptRegistry {
	return &PromptRegistry{prompts: make(map[string]map[PromptVersion]*Prompt)}
}

// Register adds p, replacing any prompt with the same ID and version.
func (r *PromptRegistry) Register(p *Prompt) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.prompts[p.ID] == nil {
		r.prompts[p.ID] = make(map[PromptVersion]*Prompt)
	}
	r.prompts[p.ID][p.Version] = p
}

// GetLatest returns the highest non-deprecated version of the prompt.
func (r *PromptRegistry) GetLatest(id string) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}

	var latest *Prompt
	for version, p := range versions {
		if p.Deprecated {
			continue
		}
		if latest == nil || compareVersions(version, latest.Version) > 0 {
			latest = p
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("prompt %s: every version is deprecated", id)
	}
	return latest, nil
}

// List returns all prompt IDs in the registry, sorted.
func (r *PromptRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.prompts))
	for id := range r.prompts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Versions returns the registered versions of id in ascending semver order.
func (r *PromptRegistry) Versions(id string) []PromptVersion {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.prompts[id]
	if !ok {
		return nil
	}

	result := make([]PromptVersion, 0, len(versions))
	for version := range versions {
		result = append(result, version)
	}
	sort.Slice(result, func(i, j int) bool { return compareVersions(result[i], result[j]) < 0 })
	return result
}

// compareVersions orders "major.minor.patch" strings numerically. Malformed
// versions sort before well-formed ones.
func compareVersions(a, b PromptVersion) int {
	if c := semver.Compare("v"+string(a), "v"+string(b)); c != 0 {
		return c
	}
	// Equal or both malformed; keep the order total.
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
