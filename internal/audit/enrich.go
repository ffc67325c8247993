package audit

import "github.com/primecut/pricing-service/internal/rules"

// RuleLookup returns the live rule for id, if it still exists.
type RuleLookup func(id int64) (rules.PricingRule, bool)

// Annotated is a snapshot with the current state of its source rule.
type Annotated struct {
	Snapshot
	LiveName   string // current rule name, empty when the rule is gone
	LiveActive bool
	Deleted    bool // rule id cleared or no longer found
	Renamed    bool
}

// Enrich attaches live rule metadata for display. Snapshot values are never
// modified.
func Enrich(snaps []Snapshot, lookup RuleLookup) []Annotated {
	out := make([]Annotated, len(snaps))
	for i, s := range snaps {
		out[i] = Annotated{Snapshot: s}
		if s.RuleID == nil {
			out[i].Deleted = true
			continue
		}
		live, ok := lookup(*s.RuleID)
		if !ok {
			out[i].Deleted = true
			continue
		}
		out[i].LiveName = live.Name
		out[i].LiveActive = live.Active
		out[i].Renamed = live.Name != s.RuleName
	}
	return out
}
