// internal/pipelinecache/source_file.go
package pipelinecache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/FairForge/catapult/internal/trigger"
)

// FileSource loads pipelines from a YAML file. It suits standalone and dev
// deployments where no definition service exists; edits to the file are
// picked up immediately via the watch.
type FileSource struct {
	path string
}

// NewFileSource creates a source over the YAML file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

type pipelineFile struct {
	Pipelines []filePipeline `yaml:"pipelines"`
}

type filePipeline struct {
	ID          string        `yaml:"id"`
	Application string        `yaml:"application"`
	Name        string        `yaml:"name"`
	Disabled    bool          `yaml:"disabled"`
	Triggers    []fileTrigger `yaml:"triggers"`
}

type fileTrigger struct {
	ID         string  `yaml:"id"`
	Type       string  `yaml:"type"`
	Enabled    bool    `yaml:"enabled"`
	Account    *string `yaml:"account"`
	Repository *string `yaml:"repository"`
	Tag        *string `yaml:"tag"`
}

// Load reads and parses the pipeline file.
func (s *FileSource) Load(_ context.Context) ([]trigger.Pipeline, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var doc pipelineFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}

	pipelines := make([]trigger.Pipeline, 0, len(doc.Pipelines))
	for _, p := range doc.Pipelines {
		pipeline := trigger.Pipeline{
			ID:          p.ID,
			Application: p.Application,
			Name:        p.Name,
			Disabled:    p.Disabled,
			Triggers:    make([]trigger.Trigger, 0, len(p.Triggers)),
		}
		for _, t := range p.Triggers {
			pipeline.Triggers = append(pipeline.Triggers, trigger.Trigger{
				ID:         t.ID,
				Type:       t.Type,
				Enabled:    t.Enabled,
				Account:    t.Account,
				Repository: t.Repository,
				Tag:        t.Tag,
			})
		}
		pipelines = append(pipelines, pipeline)
	}
	return pipelines, nil
}

// Watch notifies on writes to the pipeline file until ctx is cancelled.
// The parent directory is watched rather than the file itself so editors
// that replace the file (write temp, rename over) keep triggering.
func (s *FileSource) Watch(ctx context.Context, notify func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	var debounce <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Editors fire bursts of events per save; coalesce them.
			debounce = time.After(100 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		case <-debounce:
			debounce = nil
			notify()
		}
	}
}
