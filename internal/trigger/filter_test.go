package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectMatches(t *testing.T) {
	m := DockerMatcher{}
	event := NewDockerEvent("dockerhub", "library/nginx", "1.25")

	enabled := func(id, account, repository, tag string) Trigger {
		return Trigger{
			ID:         id,
			Type:       TriggerTypeDocker,
			Enabled:    true,
			Account:    String(account),
			Repository: String(repository),
			Tag:        String(tag),
		}
	}

	t.Run("selects each matching pipeline once", func(t *testing.T) {
		pipelines := []Pipeline{
			{ID: "p1", Application: "shop", Name: "deploy-frontend", Triggers: []Trigger{
				enabled("t1", "dockerhub", "library/nginx", ""),
			}},
			{ID: "p2", Application: "shop", Name: "deploy-backend", Triggers: []Trigger{
				enabled("t2", "dockerhub", "library/nginx", `1\.\d+`),
			}},
		}

		matches := SelectMatches(m, event, pipelines)
		require.Len(t, matches, 2)
		assert.Equal(t, "p1", matches[0].Pipeline.ID)
		assert.Equal(t, "p2", matches[1].Pipeline.ID)
	})

	t.Run("earliest declared trigger wins", func(t *testing.T) {
		pipelines := []Pipeline{
			{ID: "p1", Triggers: []Trigger{
				enabled("first", "dockerhub", "library/nginx", ""),
				enabled("second", "dockerhub", "library/nginx", `\d.*`),
			}},
		}

		matches := SelectMatches(m, event, pipelines)
		require.Len(t, matches, 1)
		assert.Equal(t, "first", matches[0].Trigger.ID)
	})

	t.Run("non-matching triggers do not duplicate a match", func(t *testing.T) {
		pipelines := []Pipeline{
			{ID: "p1", Triggers: []Trigger{
				enabled("miss", "quay", "library/nginx", ""),
				enabled("hit", "dockerhub", "library/nginx", ""),
				enabled("late", "dockerhub", "library/nginx", ""),
			}},
		}

		matches := SelectMatches(m, event, pipelines)
		require.Len(t, matches, 1)
		assert.Equal(t, "hit", matches[0].Trigger.ID)
	})

	t.Run("pipelines without matching triggers produce nothing", func(t *testing.T) {
		pipelines := []Pipeline{
			{ID: "p1", Triggers: []Trigger{enabled("t1", "gcr", "library/nginx", "")}},
			{ID: "p2"},
		}

		assert.Empty(t, SelectMatches(m, event, pipelines))
	})

	t.Run("output follows input pipeline order", func(t *testing.T) {
		pipelines := []Pipeline{
			{ID: "z", Triggers: []Trigger{enabled("tz", "dockerhub", "library/nginx", "")}},
			{ID: "a", Triggers: []Trigger{enabled("ta", "dockerhub", "library/nginx", "")}},
			{ID: "m", Triggers: []Trigger{enabled("tm", "dockerhub", "library/nginx", "")}},
		}

		matches := SelectMatches(m, event, pipelines)
		require.Len(t, matches, 3)
		assert.Equal(t, "z", matches[0].Pipeline.ID)
		assert.Equal(t, "a", matches[1].Pipeline.ID)
		assert.Equal(t, "m", matches[2].Pipeline.ID)
	})

	t.Run("duplicate pipeline identity dispatches once", func(t *testing.T) {
		dup := Pipeline{ID: "p1", Triggers: []Trigger{enabled("t1", "dockerhub", "library/nginx", "")}}

		matches := SelectMatches(m, event, []Pipeline{dup, dup})
		assert.Len(t, matches, 1)
	})

	t.Run("pipelines without IDs are not conflated", func(t *testing.T) {
		pipelines := []Pipeline{
			{Name: "one", Triggers: []Trigger{enabled("t1", "dockerhub", "library/nginx", "")}},
			{Name: "two", Triggers: []Trigger{enabled("t2", "dockerhub", "library/nginx", "")}},
		}

		assert.Len(t, SelectMatches(m, event, pipelines), 2)
	})
}
