// Package patch implements the RTL patcher: gate insertion (§4.4), punch
// routing (§4.5), DPI emission (§4.6), and backup/restore (§4.7), driven
// through an explicit per-session Session value rather than package
// globals (§9's explicit design note).
package patch

import (
	"fmt"

	"github.com/texerai/alf/internal/model"
)

// Session holds the punch-name counter (Invariant S1) and the random seed
// used once per session for the DPI stub's fuzzer construction. It is
// threaded explicitly through every call that needs fresh state, grounded
// on §9's "must be threaded as explicit state, not a process global."
type Session struct {
	nextPunchIndex map[string]int
	seed           int64
}

// NewSession creates a session seeded with seed (the caller supplies a
// value derived once, e.g. from time, so Session itself never calls a
// clock).
func NewSession(seed int64) *Session {
	return &Session{nextPunchIndex: map[string]int{}, seed: seed}
}

// Seed returns the session's fuzzer seed.
func (s *Session) Seed() int64 { return s.seed }

// AssignPunchName assigns and returns a unique punch_out_<name>_<k>
// identifier for signal name, per §3's Selected signal contract.
func (s *Session) AssignPunchName(name string) string {
	k := s.nextPunchIndex[name]
	s.nextPunchIndex[name] = k + 1
	return fmt.Sprintf("punch_out_%s_%d", name, k)
}

// AssignPunchNames assigns punch names to every signal in signals, in
// order, mutating each signal's PunchName field (Invariant S1).
func (s *Session) AssignPunchNames(signals []*model.SelectedSignal) {
	for _, sig := range signals {
		sig.PunchName = s.AssignPunchName(sig.Name)
	}
}

// GroupByDeclarationPath implements §4.8 step 7: groups selected signals
// by declaring file, in first-seen order. Each group's ModuleHierarchy is
// the instance path of the group's first signal, the hierarchy anchor for
// gate insertion's sub-instance lookups (§3's Grouped signals definition).
func GroupByDeclarationPath(signals []*model.SelectedSignal) []*model.GroupedSignals {
	order := []string{}
	groups := map[string]*model.GroupedSignals{}

	for _, sig := range signals {
		g, ok := groups[sig.DeclarationPath]
		if !ok {
			g = &model.GroupedSignals{
				ModuleHierarchy: sig.InstancePath,
				DeclarationPath: sig.DeclarationPath,
			}
			groups[sig.DeclarationPath] = g
			order = append(order, sig.DeclarationPath)
		}
		g.Signals = append(g.Signals, sig)
	}

	out := make([]*model.GroupedSignals, 0, len(order))
	for _, path := range order {
		out = append(out, groups[path])
	}
	return out
}
