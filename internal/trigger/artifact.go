package trigger

// ArtifactTypeDockerImage is the artifact type produced for docker events.
const ArtifactTypeDockerImage = "docker/image"

// Artifact describes the container image that caused a dispatch. One value
// is built per event and shared by every invocation dispatched for it.
type Artifact struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Reference string `json:"reference"`
}

// BuildArtifact derives the image artifact for a docker event. Pure and
// deterministic: name is registry/repository, version is the tag, reference
// is the full pullable coordinate.
func BuildArtifact(event Event) Artifact {
	name := event.Content.Registry + "/" + event.Content.Repository
	return Artifact{
		Type:      ArtifactTypeDockerImage,
		Name:      name,
		Version:   event.Content.Tag,
		Reference: name + ":" + event.Content.Tag,
	}
}
