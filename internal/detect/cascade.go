package detect

// step is one heuristic in a cascading search. It returns its result and
// whether it found anything; a step that cannot run (missing tool,
// missing metadata) simply reports no result.
type step func() (string, bool)

// firstHit runs steps in order and returns the first result. The order
// of the steps is the preference order and is never reshuffled
// mid-search.
func firstHit(steps ...step) (string, bool) {
	for _, s := range steps {
		if v, ok := s(); ok {
			return v, true
		}
	}
	return "", false
}
