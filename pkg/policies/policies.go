// Package policies holds the operator-defined time limits per module.
//
// A policy key is a raw module id, a catalog display name or the sentinel
// "default". At most one policy exists per key; putting a key again replaces
// it and moves it to the end of the set.
package policies

import (
	"strings"
	"time"

	"github.com/agentstation/gaze/pkg/constants"
	"github.com/agentstation/gaze/pkg/errors"
)

// DefaultKey is the key of the fallback policy.
const DefaultKey = constants.DefaultPolicyKey

// Policy is a time budget for one module key.
type Policy struct {
	ModuleKey    string `json:"module_key" yaml:"module_key"`
	LimitMinutes int    `json:"limit_minutes" yaml:"limit_minutes"`
	Enabled      bool   `json:"enabled" yaml:"enabled"`
}

// Limit returns the budget as a duration.
func (p Policy) Limit() time.Duration {
	return time.Duration(p.LimitMinutes) * time.Minute
}

// IsDefault reports whether p is the fallback policy.
func (p Policy) IsDefault() bool {
	return p.ModuleKey == DefaultKey
}

// Validate checks the key and limit.
func (p Policy) Validate() error {
	if strings.TrimSpace(p.ModuleKey) == "" {
		return errors.NewValidationError("module_key", p.ModuleKey, "must not be empty")
	}
	if p.LimitMinutes <= 0 {
		return errors.NewValidationError("limit_minutes", p.LimitMinutes, "must be greater than zero")
	}
	return nil
}

// Set is an insertion-ordered collection of policies. It is not synchronized.
type Set struct {
	order []string
	byKey map[string]Policy
}

// NewSet returns a set containing seed, applied in order with Put.
func NewSet(seed ...Policy) (*Set, error) {
	s := &Set{byKey: make(map[string]Policy)}
	for _, p := range seed {
		if err := s.Put(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Put adds p or replaces the policy with the same key. Keys are trimmed.
func (s *Set) Put(p Policy) error {
	p.ModuleKey = strings.TrimSpace(p.ModuleKey)
	if err := p.Validate(); err != nil {
		return err
	}
	if _, ok := s.byKey[p.ModuleKey]; ok {
		s.dropKey(p.ModuleKey)
	}
	s.order = append(s.order, p.ModuleKey)
	s.byKey[p.ModuleKey] = p
	return nil
}

// Get returns the policy for key regardless of its state.
func (s *Set) Get(key string) (Policy, bool) {
	p, ok := s.byKey[key]
	return p, ok
}

// Enabled returns the policy for key only if it is enabled.
func (s *Set) Enabled(key string) (Policy, bool) {
	p, ok := s.byKey[key]
	if !ok || !p.Enabled {
		return Policy{}, false
	}
	return p, true
}

// SetEnabled enables or disables the policy for key.
func (s *Set) SetEnabled(key string, enabled bool) (Policy, error) {
	p, ok := s.byKey[key]
	if !ok {
		return Policy{}, errors.NewNotFoundError("policy", key)
	}
	p.Enabled = enabled
	s.byKey[key] = p
	return p, nil
}

// Toggle flips the enabled state of the policy for key.
func (s *Set) Toggle(key string) (Policy, error) {
	p, ok := s.byKey[key]
	if !ok {
		return Policy{}, errors.NewNotFoundError("policy", key)
	}
	return s.SetEnabled(key, !p.Enabled)
}

// Remove deletes the policy for key.
func (s *Set) Remove(key string) (Policy, error) {
	p, ok := s.byKey[key]
	if !ok {
		return Policy{}, errors.NewNotFoundError("policy", key)
	}
	s.dropKey(key)
	delete(s.byKey, key)
	return p, nil
}

// All returns every policy in insertion order.
func (s *Set) All() []Policy {
	out := make([]Policy, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.byKey[k])
	}
	return out
}

// EachEnabled calls fn for every enabled policy in insertion order until fn
// returns false.
func (s *Set) EachEnabled(fn func(Policy) bool) {
	for _, k := range s.order {
		p := s.byKey[k]
		if !p.Enabled {
			continue
		}
		if !fn(p) {
			return
		}
	}
}

// Len returns the number of policies.
func (s *Set) Len() int {
	return len(s.order)
}

// ActiveCount returns the number of enabled policies, excluding the default.
func (s *Set) ActiveCount() int {
	n := 0
	s.EachEnabled(func(p Policy) bool {
		if !p.IsDefault() {
			n++
		}
		return true
	})
	return n
}

func (s *Set) dropKey(key string) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
