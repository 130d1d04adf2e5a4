package tasks

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

// Editable scene fields accepted by [SceneStore.Update].
const (
	FieldDescription = "description"
	FieldDuration    = "duration"
	FieldNotes       = "notes"
)

// SceneStore holds the ordered scenes of one project while the user edits them.
//
// It is safe for concurrent use; readers get copies.
type SceneStore struct {
	mu     sync.RWMutex
	scenes []models.Scene
}

// NewSceneStore creates a store seeded with scenes.
func NewSceneStore(scenes []models.Scene) *SceneStore {
	s := &SceneStore{}
	s.Replace(scenes)
	return s
}

// Replace swaps in a new scene list.
func (s *SceneStore) Replace(scenes []models.Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenes = append([]models.Scene(nil), scenes...)
}

// LoadScript replaces the scenes with one per stub extracted from script and returns the stubs.
func (s *SceneStore) LoadScript(script string) []models.SceneTemplate {
	stubs := ExtractStubs(script)
	s.Replace(InitializeScenes(stubs))
	return stubs
}

// Scenes returns a copy of the scenes in order.
func (s *SceneStore) Scenes() []models.Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Scene(nil), s.scenes...)
}

// Len returns the number of scenes.
func (s *SceneStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scenes)
}

// Get returns the scene with id.
func (s *SceneStore) Get(id int) (models.Scene, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return models.Scene{}, fmt.Errorf("%w: %d", shared.ErrSceneNotFound, id)
	}
	return s.scenes[i], nil
}

func (s *SceneStore) index(id int) int {
	for i, sc := range s.scenes {
		if sc.ID == id {
			return i
		}
	}
	return -1
}

// Update sets one text field of a scene.
func (s *SceneStore) Update(id int, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", shared.ErrSceneNotFound, id)
	}

	switch strings.ToLower(field) {
	case FieldDescription:
		s.scenes[i].Description = value
	case FieldDuration:
		s.scenes[i].Duration = strings.TrimSpace(value)
	case FieldNotes:
		s.scenes[i].Notes = value
	default:
		return fmt.Errorf("%w: unknown scene field %q", shared.ErrInvalidArgument, field)
	}
	return nil
}

// AttachVideo sets the clip of a scene after checking that path is a readable video file.
func (s *SceneStore) AttachVideo(id int, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrInvalidInput, path)
	}
	if err := CheckVideoFile(abs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", shared.ErrSceneNotFound, id)
	}
	s.scenes[i].VideoFile = abs
	return nil
}

// RemoveVideo clears the clip of a scene.
func (s *SceneStore) RemoveVideo(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", shared.ErrSceneNotFound, id)
	}
	s.scenes[i].VideoFile = ""
	return nil
}

// Missing returns the ids of scenes without a clip.
func (s *SceneStore) Missing() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return missingVideos(s.scenes)
}

// EstimatedDuration sums the numeric scene durations, counting unparseable ones as zero.
func (s *SceneStore) EstimatedDuration() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, sc := range s.scenes {
		if secs, ok := sc.Seconds(); ok {
			total += secs
		}
	}
	return total
}

// Reset drops every scene.
func (s *SceneStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenes = nil
}

func missingVideos(scenes []models.Scene) []int {
	var ids []int
	for _, sc := range scenes {
		if !sc.HasVideo() {
			ids = append(ids, sc.ID)
		}
	}
	return ids
}

// CheckVideoFile verifies path is a regular file whose content sniffs as video.
func CheckVideoFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", shared.ErrInvalidInput, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	defer f.Close()

	head := make([]byte, shared.SniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	contentType, ok := shared.SniffVideo(head[:n], path)
	if ok {
		return nil
	}
	return fmt.Errorf("%w: %s is not a video file (%s)", shared.ErrInvalidInput, filepath.Base(path), contentType)
}
