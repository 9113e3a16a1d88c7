package trigger

import (
	"regexp"
	"strings"
)

// Matcher decides whether a single trigger fires for a single event. Pure:
// implementations must not carry state between calls or produce side effects.
type Matcher interface {
	Matches(event Event, t Trigger) bool
}

// DockerMatcher implements the matching policy for docker image events.
// Every condition is mandatory:
//
//   - the trigger type is docker,
//   - the trigger is enabled,
//   - account and repository are present and equal the event's registry and
//     repository exactly (case-sensitive; absent fields are a configuration
//     error and never match),
//   - the tag field is present, and is either blank (wildcard: any event
//     tag) or a regular expression matching the full event tag.
//
// A tag pattern that fails to compile disqualifies that trigger only; it is
// an ordinary non-match, never an error that could abort sibling triggers.
type DockerMatcher struct{}

// Matches reports whether t fires for event.
func (DockerMatcher) Matches(event Event, t Trigger) bool {
	if t.Type != TriggerTypeDocker {
		return false
	}
	if !t.Enabled {
		return false
	}
	if t.Account == nil || *t.Account != event.Content.Registry {
		return false
	}
	if t.Repository == nil || *t.Repository != event.Content.Repository {
		return false
	}
	return tagMatches(t.Tag, event.Content.Tag)
}

// tagMatches applies the tag policy: nil never matches, a value that trims
// to the empty string matches any tag, anything else is a regular expression
// required to match the whole event tag.
func tagMatches(pattern *string, tag string) bool {
	if pattern == nil {
		return false
	}
	if strings.TrimSpace(*pattern) == "" {
		return true
	}
	// Anchor with \A and \z rather than ^/$ so an embedded (?m) flag in the
	// pattern cannot turn the anchors into line anchors. The untrimmed value
	// is used: surrounding whitespace in a non-blank pattern is significant.
	re, err := regexp.Compile(`\A(?:` + *pattern + `)\z`)
	if err != nil {
		return false
	}
	return re.MatchString(tag)
}
