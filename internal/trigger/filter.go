package trigger

// Match pairs a pipeline with the trigger that selected it for one event.
type Match struct {
	Pipeline Pipeline
	Trigger  Trigger
}

// SelectMatches evaluates every pipeline against the event and returns one
// Match per pipeline that should fire. Triggers are scanned in declaration
// order and the earliest matching trigger wins, so a pipeline is selected at
// most once per event no matter how many of its triggers match. Pipelines
// that share an ID with an earlier selection are skipped as well: dispatch
// dedup is by pipeline identity. Output order follows the input order.
func SelectMatches(m Matcher, event Event, pipelines []Pipeline) []Match {
	var matches []Match
	seen := make(map[string]struct{}, len(pipelines))

	for _, p := range pipelines {
		if p.ID != "" {
			if _, dup := seen[p.ID]; dup {
				continue
			}
		}
		for _, t := range p.Triggers {
			if m.Matches(event, t) {
				matches = append(matches, Match{Pipeline: p, Trigger: t})
				if p.ID != "" {
					seen[p.ID] = struct{}{}
				}
				break
			}
		}
	}

	return matches
}
