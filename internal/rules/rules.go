// Package rules holds the redirect rule model: validated sources and destinations, the
// ordered rule set built from them, and the resolution of a request into an Action.
package rules

import "fmt"

// Rule redirects requests under From to To.
type Rule struct {
	From From
	To   To
}

func (r Rule) String() string {
	return fmt.Sprintf("%s -> %s", r.From, r.To)
}

// Rules is an ordered, read-only set of rules. The first matching rule wins, so the order
// given at construction is kept exactly. A Rules value is safe for concurrent use.
type Rules struct {
	rules []Rule
}

// New pairs froms and tos positionally.
func New(froms []From, tos []To) (Rules, error) {
	if len(froms) != len(tos) {
		return Rules{}, ErrUnequalFromTo
	}
	rs := make([]Rule, len(froms))
	for i := range froms {
		rs[i] = Rule{From: froms[i], To: tos[i]}
	}
	return Rules{rules: rs}, nil
}

// Parse validates raw from/to strings and pairs them. A malformed entry is reported as a
// *PairError naming the pair it belongs to.
func Parse(froms, tos []string) (Rules, error) {
	if len(froms) != len(tos) {
		return Rules{}, ErrUnequalFromTo
	}
	rs := make([]Rule, 0, len(froms))
	for i := range froms {
		from, err := ParseFrom(froms[i])
		if err != nil {
			return Rules{}, &PairError{From: froms[i], To: tos[i], Err: err}
		}
		to, err := ParseTo(tos[i])
		if err != nil {
			return Rules{}, &PairError{From: froms[i], To: tos[i], Err: err}
		}
		rs = append(rs, Rule{From: from, To: to})
	}
	return Rules{rules: rs}, nil
}

func (rs Rules) Len() int {
	return len(rs.rules)
}

// All returns a copy of the rules in match order.
func (rs Rules) All() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}
