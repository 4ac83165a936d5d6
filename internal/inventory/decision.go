package inventory

import "github.com/grandir66/dadude/pkg/models"

// MergeStrategy is the action the decision engine selects for a duplicate
// pair. The executor refuses strategies outside this set.
type MergeStrategy string

const (
	// StrategySkip keeps the existing record untouched except for its
	// verification bookkeeping.
	StrategySkip MergeStrategy = "skip"
	// StrategyMerge fills gaps on the existing record but never overwrites
	// a populated field.
	StrategyMerge MergeStrategy = "merge"
	// StrategyOverwrite prefers the discovered value wherever the two sides
	// disagree.
	StrategyOverwrite MergeStrategy = "overwrite"
)

// DefaultScoreMargin is how much more complete a discovered record must be
// before the engine trusts it enough to overwrite populated fields.
const DefaultScoreMargin = 0.1

// FieldDiff describes one mapped field on which the two records disagree,
// both sides populated with different values.
type FieldDiff struct {
	Field      string `json:"field"`
	Existing   any    `json:"existing"`
	Discovered any    `json:"discovered"`
}

// MergeProposal is the decision engine's verdict for one existing/discovered
// pair: what to do, why, and the field-level evidence it was based on. Every
// mapped field populated on at least one side lands in exactly one of the
// four classification lists.
type MergeProposal struct {
	Strategy           MergeStrategy `json:"strategy"`
	Reason             string        `json:"reason"`
	Confidence         float64       `json:"confidence"`
	ExistingScore      float64       `json:"existing_score"`
	DiscoveredScore    float64       `json:"discovered_score"`
	MatchingFields     []string      `json:"matching_fields,omitempty"`
	NewFields          []string      `json:"new_fields,omitempty"`
	ExistingOnlyFields []string      `json:"existing_only_fields,omitempty"`
	Conflicts          []FieldDiff   `json:"conflicts,omitempty"`
}

// Decider turns a duplicate pair into a MergeProposal. Pure and stateless
// apart from its margin; safe for concurrent use.
type Decider struct {
	// ScoreMargin overrides DefaultScoreMargin when > 0.
	ScoreMargin float64
}

func (dc Decider) margin() float64 {
	if dc.ScoreMargin > 0 {
		return dc.ScoreMargin
	}
	return DefaultScoreMargin
}

// Propose compares an existing record with a discovered observation and
// selects a merge strategy. Rules are evaluated in order; the first match
// wins:
//
//  1. discovered score exceeds existing by more than the margin -> overwrite
//  2. discovered score is higher (within the margin)            -> merge
//  3. more gap-filling fields than conflicting ones             -> merge
//  4. no conflicts at all                                       -> merge
//  5. otherwise                                                 -> skip
//
// Confidence is the absolute completeness gap between the two records: a
// large gap in either direction means the verdict is well supported.
func (dc Decider) Propose(existing *models.Device, discovered *models.DiscoveredDevice) MergeProposal {
	p := MergeProposal{
		ExistingScore:   DeviceScore(existing),
		DiscoveredScore: DiscoveredScore(discovered),
	}

	for _, f := range fieldMapping() {
		ev := f.existing(existing)
		dv := f.discovered(discovered)
		switch {
		case isEmptyValue(dv) && isEmptyValue(ev):
			// Absent on both sides; not evidence for anything.
		case isEmptyValue(dv):
			p.ExistingOnlyFields = append(p.ExistingOnlyFields, f.name)
		case isEmptyValue(ev):
			p.NewFields = append(p.NewFields, f.name)
		case valuesEqual(ev, dv):
			p.MatchingFields = append(p.MatchingFields, f.name)
		default:
			p.Conflicts = append(p.Conflicts, FieldDiff{Field: f.name, Existing: ev, Discovered: dv})
		}
	}

	diff := p.DiscoveredScore - p.ExistingScore
	p.Confidence = diff
	if p.Confidence < 0 {
		p.Confidence = -p.Confidence
	}

	switch {
	case diff > dc.margin():
		p.Strategy = StrategyOverwrite
		p.Reason = "discovered record is substantially more complete"
	case diff > 0:
		p.Strategy = StrategyMerge
		p.Reason = "discovered record is slightly more complete"
	case len(p.NewFields) > len(p.Conflicts):
		p.Strategy = StrategyMerge
		p.Reason = "discovered record fills more gaps than it disputes"
	case len(p.Conflicts) == 0:
		p.Strategy = StrategyMerge
		p.Reason = "no conflicting fields"
	default:
		p.Strategy = StrategySkip
		p.Reason = "existing record is more complete and the records conflict"
	}

	return p
}
