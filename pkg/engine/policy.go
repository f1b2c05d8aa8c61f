package engine

import (
	"strings"

	"github.com/agentstation/gaze/pkg/policies"
)

// PutPolicy adds or replaces an enabled policy for key. It takes effect on the
// next evaluator pass.
func (e *Engine) PutPolicy(key string, limitMinutes int) (policies.Policy, error) {
	p := policies.Policy{ModuleKey: strings.TrimSpace(key), LimitMinutes: limitMinutes, Enabled: true}

	e.mu.Lock()
	err := e.policies.Put(p)
	e.mu.Unlock()

	if err != nil {
		return policies.Policy{}, err
	}
	e.policyChanged(PolicyPut, p)
	return p, nil
}

// SetPolicyEnabled enables or disables the policy for key.
func (e *Engine) SetPolicyEnabled(key string, enabled bool) (policies.Policy, error) {
	e.mu.Lock()
	p, err := e.policies.SetEnabled(key, enabled)
	e.mu.Unlock()

	if err != nil {
		return policies.Policy{}, err
	}
	e.policyChanged(actionFor(p), p)
	return p, nil
}

// TogglePolicy flips the enabled state of the policy for key.
func (e *Engine) TogglePolicy(key string) (policies.Policy, error) {
	e.mu.Lock()
	p, err := e.policies.Toggle(key)
	e.mu.Unlock()

	if err != nil {
		return policies.Policy{}, err
	}
	e.policyChanged(actionFor(p), p)
	return p, nil
}

// RemovePolicy deletes the policy for key.
func (e *Engine) RemovePolicy(key string) (policies.Policy, error) {
	e.mu.Lock()
	p, err := e.policies.Remove(key)
	e.mu.Unlock()

	if err != nil {
		return policies.Policy{}, err
	}
	e.policyChanged(PolicyRemoved, p)
	return p, nil
}

// Policies returns every policy in insertion order.
func (e *Engine) Policies() []policies.Policy {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.policies.All()
}

func (e *Engine) policyChanged(action PolicyAction, p policies.Policy) {
	e.logger.Info().
		Str("policy", p.ModuleKey).
		Int("limit_minutes", p.LimitMinutes).
		Bool("enabled", p.Enabled).
		Str("action", string(action)).
		Msg("policy changed")
	e.emit(Event{Type: EventPolicyChanged, Timestamp: e.clock.Now(), Data: PolicyChange{Action: action, Policy: p}})
}

func actionFor(p policies.Policy) PolicyAction {
	if p.Enabled {
		return PolicyEnabled
	}
	return PolicyDisabled
}
