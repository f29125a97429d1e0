package scene

import (
	"context"

	"github.com/argus-labs/forge/pkg/ecs"
)

// TransformSystem resolves every transform's world position and scale through its parent chain.
type TransformSystem struct {
	ecs.BaseSystem

	transforms ecs.View1[TransformComponent]
	resolved   map[ecs.EntityID]bool
}

func (s *TransformSystem) OnCreate() {
	s.transforms = ecs.NewView1[TransformComponent](s.Viewer())
	s.resolved = make(map[ecs.EntityID]bool)
}

func (s *TransformSystem) OnUpdate(context.Context, float64) {
	clear(s.resolved)
	s.transforms.Each(func(e ecs.Entity, t *TransformComponent) {
		s.resolve(e.ID(), t)
	})
}

// resolve computes t's world transform, resolving ancestors first. A parent without a transform
// contributes the identity.
func (s *TransformSystem) resolve(id ecs.EntityID, t *TransformComponent) {
	if s.resolved[id] {
		return
	}
	s.resolved[id] = true

	em := s.Manager()
	position, scale := t.LocalPosition(), t.LocalScale()

	if parent := ecs.Get[ParentComponent](em, id); parent != nil && em.IsValid(parent.Parent) {
		if pt := ecs.Get[TransformComponent](em, parent.Parent); pt != nil {
			s.resolve(parent.Parent, pt)
			position = pt.WorldPosition().Add(pt.WorldScale().Mul(position))
			scale = pt.WorldScale().Mul(scale)
		}
	}

	t.setWorld(position, scale)
}

// RenderObject is what the renderer draws for one entity.
type RenderObject struct {
	Entity   ecs.EntityID
	Mesh     string
	Material string
	Position Vec3
	Scale    Vec3
}

// RenderGatherSystem collects a RenderObject for every enabled mesh renderer with a transform.
// Enabling or disabling the system turns every renderer on or off.
type RenderGatherSystem struct {
	ecs.BaseSystem

	renderables ecs.View2[TransformComponent, MeshRendererComponent]
	renderers   ecs.View1[MeshRendererComponent]
	objects     []RenderObject
}

func (s *RenderGatherSystem) OnCreate() {
	s.renderables = ecs.NewView2[TransformComponent, MeshRendererComponent](s.Viewer())
	s.renderers = ecs.NewView1[MeshRendererComponent](s.Viewer())
}

func (s *RenderGatherSystem) OnEnable() {
	s.setAll(true)
}

func (s *RenderGatherSystem) OnDisable() {
	s.setAll(false)
	s.objects = s.objects[:0]
}

func (s *RenderGatherSystem) setAll(enabled bool) {
	s.renderers.Each(func(_ ecs.Entity, r *MeshRendererComponent) {
		r.Enabled = enabled
	})
}

func (s *RenderGatherSystem) OnUpdate(context.Context, float64) {
	s.objects = s.objects[:0]
	for e, row := range s.renderables.All() {
		if !row.C2.Enabled {
			continue
		}
		s.objects = append(s.objects, RenderObject{
			Entity:   e.ID(),
			Mesh:     row.C2.Mesh,
			Material: row.C2.Material,
			Position: row.C1.WorldPosition(),
			Scale:    row.C1.WorldScale(),
		})
	}
}

// Objects returns the render objects gathered by the last update. The slice is reused by the next
// update.
func (s *RenderGatherSystem) Objects() []RenderObject {
	return s.objects
}
