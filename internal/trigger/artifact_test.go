package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildArtifact(t *testing.T) {
	t.Run("derives image coordinates from the event", func(t *testing.T) {
		event := NewDockerEvent("dockerhub", "library/nginx", "1.25")

		artifact := BuildArtifact(event)
		assert.Equal(t, ArtifactTypeDockerImage, artifact.Type)
		assert.Equal(t, "dockerhub/library/nginx", artifact.Name)
		assert.Equal(t, "1.25", artifact.Version)
		assert.Equal(t, "dockerhub/library/nginx:1.25", artifact.Reference)
	})

	t.Run("is deterministic", func(t *testing.T) {
		event := NewDockerEvent("quay", "coreos/etcd", "v3.5.0")
		assert.Equal(t, BuildArtifact(event), BuildArtifact(event))
	})
}

func TestNewDockerEvent(t *testing.T) {
	t.Run("assigns an ID and the docker type", func(t *testing.T) {
		event := NewDockerEvent("dockerhub", "library/nginx", "latest")
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, EventTypeDocker, event.Type)
		assert.Equal(t, "dockerhub", event.Content.Registry)
		assert.Equal(t, "library/nginx", event.Content.Repository)
		assert.Equal(t, "latest", event.Content.Tag)
	})

	t.Run("IDs are unique per event", func(t *testing.T) {
		a := NewDockerEvent("dockerhub", "library/nginx", "latest")
		b := NewDockerEvent("dockerhub", "library/nginx", "latest")
		assert.NotEqual(t, a.ID, b.ID)
	})
}
