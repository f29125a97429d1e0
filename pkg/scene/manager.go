package scene

import (
	"slices"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Manager owns every live scene of an engine and tracks which one is active.
type Manager struct {
	defaults Options // Template for every scene; Name and Path are set per scene
	scenes   []*Scene
	active   *Scene
	log      zerolog.Logger
}

// NewManager creates a manager whose scenes are built from defaults.
func NewManager(defaults Options) *Manager {
	log := zerolog.Nop()
	if defaults.Logger != nil {
		log = *defaults.Logger
	}
	return &Manager{
		defaults: defaults,
		scenes:   make([]*Scene, 0),
		log:      log,
	}
}

// CreateScene creates a named scene. The first scene created becomes the active one.
func (m *Manager) CreateScene(name string) (*Scene, error) {
	if name == "" {
		return nil, eris.New("scene name cannot be empty")
	}
	if _, exists := m.SceneByName(name); exists {
		return nil, eris.Errorf("scene %q already exists", name)
	}

	opts := m.defaults
	opts.Name = name
	opts.Path = ""
	s := New(opts)

	m.scenes = append(m.scenes, s)
	if m.active == nil {
		m.active = s
	}
	m.log.Info().Str("scene", name).Str("scene_uuid", s.UUID().String()).Msg("scene created")
	return s, nil
}

// DeleteScene closes s and forgets it. It reports whether s belonged to the manager. Deleting the
// active scene leaves no scene active.
func (m *Manager) DeleteScene(s *Scene) bool {
	idx := slices.Index(m.scenes, s)
	if idx < 0 {
		return false
	}

	s.Close()
	m.scenes = slices.Delete(m.scenes, idx, idx+1)
	if m.active == s {
		m.active = nil
	}
	m.log.Info().Str("scene", s.Name()).Str("scene_uuid", s.UUID().String()).Msg("scene deleted")
	return true
}

// SceneByName returns the scene with the given name.
func (m *Manager) SceneByName(name string) (*Scene, bool) {
	for _, s := range m.scenes {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// SceneByUUID returns the scene with the given UUID.
func (m *Manager) SceneByUUID(id uuid.UUID) (*Scene, bool) {
	for _, s := range m.scenes {
		if s.UUID() == id {
			return s, true
		}
	}
	return nil, false
}

// Scenes returns the live scenes in creation order.
func (m *Manager) Scenes() []*Scene {
	return slices.Clone(m.scenes)
}

// SetActiveScene makes s the scene the engine drives.
func (m *Manager) SetActiveScene(s *Scene) error {
	if !slices.Contains(m.scenes, s) {
		return eris.New("scene is not managed by this manager")
	}
	m.active = s
	return nil
}

// ActiveScene returns the scene the engine drives, or nil.
func (m *Manager) ActiveScene() *Scene {
	return m.active
}

// Close deletes every scene, newest first.
func (m *Manager) Close() {
	for i := len(m.scenes) - 1; i >= 0; i-- {
		m.scenes[i].Close()
	}
	m.scenes = m.scenes[:0]
	m.active = nil
}
