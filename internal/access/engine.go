package access

// Evaluate produces a single verdict for a rule against the current
// principal and toggle snapshot. The ordering is deliberate:
//
//	authentication -> admin override -> role -> permission -> feature
//
// Role and permission gates run before the feature toggle so a disabled
// feature never reveals whether the caller would have had permission. The
// admin override short-circuits everything so operators cannot be locked out
// by a toggle misconfiguration.
//
// Evaluate is pure: same inputs, same verdict, no I/O.
func Evaluate(p *Principal, rule Rule, toggles ToggleReader) Verdict {
	if p == nil {
		return Verdict{Allowed: false, Reason: ReasonNotAuthenticated}
	}

	if p.IsAdmin() {
		return Verdict{Allowed: true, Reason: ReasonAdminOverride}
	}

	// A role match alone is sufficient; permissions are only consulted when
	// no required role matched (OR semantics across the two lists).
	roleMatched := len(rule.Roles) > 0 && p.HasAnyRole(rule.Roles...)
	if !roleMatched {
		switch {
		case len(rule.Permissions) > 0:
			if !p.HasAnyPermission(rule.Permissions...) {
				return Verdict{Allowed: false, Reason: ReasonMissingPermission}
			}
		case len(rule.Roles) > 0:
			return Verdict{Allowed: false, Reason: ReasonMissingRole}
		}
	}

	if rule.Feature != "" {
		enabled, known := lookupToggle(toggles, rule.Feature)
		switch {
		case known:
			if !enabled {
				return Verdict{Allowed: false, Reason: ReasonFeatureDisabled}
			}
		case toggles != nil && toggles.Loaded():
			// Snapshot present but the name is not in it: the toggle simply
			// does not exist in storage, so the configured default decides
			// and the verdict reads as an ordinary allow or deny.
			if !toggles.Default(rule.Feature) {
				return Verdict{Allowed: false, Reason: ReasonFeatureDisabled}
			}
		default:
			// No snapshot at all (fetch failed or never ran). The default
			// still decides, but an allow carries the degraded-check reason
			// so operators can see the engine ran without real toggle state.
			if toggles == nil || !toggles.Default(rule.Feature) {
				return Verdict{Allowed: false, Reason: ReasonFeatureDisabled}
			}
			return Verdict{Allowed: true, Reason: ReasonFeatureDefaultAllow}
		}
	}

	return Verdict{Allowed: true, Reason: ReasonOK}
}

func lookupToggle(toggles ToggleReader, name string) (bool, bool) {
	if toggles == nil {
		return false, false
	}
	return toggles.Lookup(name)
}
