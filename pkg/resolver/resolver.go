// Package resolver decides which time limit applies to a session.
//
// A session only knows its raw module id, taken from a request path, while
// operators usually name modules by their catalog display name. Resolve
// bridges the two with a fixed precedence:
//
//  1. exact: an enabled policy keyed by the raw id
//  2. catalog: the raw id's catalog entry, then an enabled policy keyed by its display name
//  3. reverse: an enabled policy whose key names a catalog entry deriving the raw id
//  4. default: the enabled "default" policy
//
// Nothing is cached; the index and the set may change between calls.
package resolver

import (
	"github.com/agentstation/gaze/pkg/catalog"
	"github.com/agentstation/gaze/pkg/policies"
	"github.com/agentstation/gaze/pkg/sessions"
)

// Tier names the rule that produced a resolution.
type Tier string

// Resolution tiers, in precedence order.
const (
	TierExact   Tier = "exact"
	TierCatalog Tier = "catalog"
	TierReverse Tier = "reverse"
	TierDefault Tier = "default"
)

// Resolution is the policy that applies to a session and how it was found.
type Resolution struct {
	Policy policies.Policy `json:"policy"`
	Tier   Tier            `json:"tier"`
}

// Resolve returns the policy for s, or false when none applies.
// A nil index is treated as an empty catalog.
func Resolve(s sessions.Session, ix *catalog.Index, set *policies.Set) (Resolution, bool) {
	return ResolveModule(s.RawModuleID, ix, set)
}

// ResolveModule resolves by raw module id alone.
func ResolveModule(raw string, ix *catalog.Index, set *policies.Set) (Resolution, bool) {
	if set == nil {
		return Resolution{}, false
	}

	if p, ok := set.Enabled(raw); ok && !p.IsDefault() {
		return Resolution{Policy: p, Tier: TierExact}, true
	}

	if entry, ok := ix.Lookup(raw); ok && entry.DisplayName != "" {
		if p, ok := set.Enabled(entry.DisplayName); ok && !p.IsDefault() {
			return Resolution{Policy: p, Tier: TierCatalog}, true
		}
	}

	var (
		found Resolution
		hit   bool
	)
	set.EachEnabled(func(p policies.Policy) bool {
		if p.IsDefault() {
			return true
		}
		entry, ok := ix.ByDisplayName(p.ModuleKey)
		if ok && ix.RawIDOf(entry) == raw {
			found, hit = Resolution{Policy: p, Tier: TierReverse}, true
			return false
		}
		return true
	})
	if hit {
		return found, true
	}

	if p, ok := set.Enabled(policies.DefaultKey); ok {
		return Resolution{Policy: p, Tier: TierDefault}, true
	}
	return Resolution{}, false
}
