package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func matchingTrigger() Trigger {
	return Trigger{
		Type:       TriggerTypeDocker,
		Enabled:    true,
		Account:    String("dockerhub"),
		Repository: String("library/nginx"),
		Tag:        String("1.25"),
	}
}

func TestDockerMatcher_Matches(t *testing.T) {
	m := DockerMatcher{}
	event := NewDockerEvent("dockerhub", "library/nginx", "1.25")

	t.Run("matches when all fields line up", func(t *testing.T) {
		assert.True(t, m.Matches(event, matchingTrigger()))
	})

	t.Run("rejects non-docker trigger types", func(t *testing.T) {
		tr := matchingTrigger()
		tr.Type = "git"
		assert.False(t, m.Matches(event, tr))

		tr.Type = "cron"
		assert.False(t, m.Matches(event, tr))
	})

	t.Run("rejects disabled triggers", func(t *testing.T) {
		tr := matchingTrigger()
		tr.Enabled = false
		assert.False(t, m.Matches(event, tr))
	})

	t.Run("rejects absent account", func(t *testing.T) {
		tr := matchingTrigger()
		tr.Account = nil
		assert.False(t, m.Matches(event, tr))
	})

	t.Run("rejects account mismatch", func(t *testing.T) {
		tr := matchingTrigger()
		tr.Account = String("quay")
		assert.False(t, m.Matches(event, tr))
	})

	t.Run("account comparison is case-sensitive", func(t *testing.T) {
		tr := matchingTrigger()
		tr.Account = String("DockerHub")
		assert.False(t, m.Matches(event, tr))
	})

	t.Run("rejects absent repository", func(t *testing.T) {
		tr := matchingTrigger()
		tr.Repository = nil
		assert.False(t, m.Matches(event, tr))
	})

	t.Run("rejects repository mismatch", func(t *testing.T) {
		tr := matchingTrigger()
		tr.Repository = String("library/redis")
		assert.False(t, m.Matches(event, tr))
	})

	t.Run("rejects absent tag", func(t *testing.T) {
		tr := matchingTrigger()
		tr.Tag = nil
		assert.False(t, m.Matches(event, tr))
	})
}

func TestDockerMatcher_TagPolicy(t *testing.T) {
	m := DockerMatcher{}

	withTag := func(pattern string) Trigger {
		tr := matchingTrigger()
		tr.Tag = String(pattern)
		return tr
	}
	eventWithTag := func(tag string) Event {
		return NewDockerEvent("dockerhub", "library/nginx", tag)
	}

	t.Run("empty tag is a wildcard", func(t *testing.T) {
		assert.True(t, m.Matches(eventWithTag("latest"), withTag("")))
		assert.True(t, m.Matches(eventWithTag("1.25"), withTag("")))
	})

	t.Run("whitespace-only tag is a wildcard", func(t *testing.T) {
		assert.True(t, m.Matches(eventWithTag("latest"), withTag("\t")))
		assert.True(t, m.Matches(eventWithTag("v2"), withTag("   ")))
	})

	t.Run("tag is a regular expression", func(t *testing.T) {
		assert.True(t, m.Matches(eventWithTag("2"), withTag(`\d+`)))
		assert.False(t, m.Matches(eventWithTag("latest"), withTag(`\d+`)))
	})

	t.Run("regex must match the whole tag", func(t *testing.T) {
		assert.False(t, m.Matches(eventWithTag("22"), withTag("2")))
		assert.False(t, m.Matches(eventWithTag("v1.25"), withTag(`\d+`)))
	})

	t.Run("regex metacharacters are live in plain-looking tags", func(t *testing.T) {
		// "1.25" as a pattern matches "1x25": the dot is a metacharacter.
		assert.True(t, m.Matches(eventWithTag("1x25"), withTag("1.25")))
	})

	t.Run("surrounding whitespace in a non-blank pattern is significant", func(t *testing.T) {
		assert.False(t, m.Matches(eventWithTag("2"), withTag(" 2")))
		assert.True(t, m.Matches(eventWithTag(" 2"), withTag(" 2")))
	})

	t.Run("malformed regex is a non-match, not a failure", func(t *testing.T) {
		assert.NotPanics(t, func() {
			assert.False(t, m.Matches(eventWithTag("latest"), withTag("[")))
		})
	})

	t.Run("multiline flag cannot weaken the anchors", func(t *testing.T) {
		assert.False(t, m.Matches(eventWithTag("a\nb"), withTag("(?m)^b$")))
	})

	t.Run("valid regex that simply does not match", func(t *testing.T) {
		assert.False(t, m.Matches(eventWithTag("stable"), withTag("release-.*")))
	})
}
