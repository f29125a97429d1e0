// Package scene layers scene semantics over the ecs runtime: named entities with persistent
// UUIDs, a parent/child hierarchy, deferred destruction and a fixed-step frame loop.
package scene

import (
	"context"
	"math"
	"time"

	"github.com/argus-labs/forge/pkg/assert"
	"github.com/argus-labs/forge/pkg/ecs"
	"github.com/argus-labs/forge/pkg/job"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	defaultFixedTimestep = 20 * time.Millisecond
	defaultMaxFixedSteps = 5
)

// Options configures a scene. Zero values pick defaults.
type Options struct {
	Name          string
	Path          string
	Registry      *ecs.Registry   // Shared component registry, a private one when nil
	Jobs          job.Scheduler   // Runs parallel views, inline when nil
	MaxEntities   int             // ecs.DefaultMaxEntities when 0
	FixedTimestep time.Duration   // 20ms when 0
	MaxFixedSteps int             // 5 when 0
	Logger        *zerolog.Logger // No-op when nil
	Tracer        trace.Tracer    // No-op when nil
}

// Scene owns one EntityManager and one SystemManager. It is driven by a single goroutine.
type Scene struct {
	id     uuid.UUID
	name   string
	path   string
	em     *ecs.EntityManager
	sm     *ecs.SystemManager
	viewer ecs.Viewer
	log    zerolog.Logger
	tracer trace.Tracer

	fixedStep     float64 // Seconds
	maxFixedSteps int
	accumulator   float64 // Unsimulated time in seconds

	names     ecs.View1[NameComponent]
	uuids     ecs.View1[UUIDComponent]
	parents   ecs.View1[ParentComponent]
	destroyed ecs.View1[DestroyComponent]

	closed bool
}

// New creates a scene with the built-in transform and render gather systems registered in
// LateUpdate.
func New(opts Options) *Scene {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("scene")
	}
	if opts.FixedTimestep <= 0 {
		opts.FixedTimestep = defaultFixedTimestep
	}
	if opts.MaxFixedSteps <= 0 {
		opts.MaxFixedSteps = defaultMaxFixedSteps
	}

	id := uuid.New()
	em := ecs.NewEntityManager(opts.Registry, opts.MaxEntities)
	viewer := ecs.NewViewer(em, opts.Jobs)

	s := &Scene{
		id:            id,
		name:          opts.Name,
		path:          opts.Path,
		em:            em,
		sm:            ecs.NewSystemManager(viewer, tracer),
		viewer:        viewer,
		log:           log.With().Str("scene", opts.Name).Str("scene_uuid", id.String()).Logger(),
		tracer:        tracer,
		fixedStep:     opts.FixedTimestep.Seconds(),
		maxFixedSteps: opts.MaxFixedSteps,
		names:         ecs.NewView1[NameComponent](viewer),
		uuids:         ecs.NewView1[UUIDComponent](viewer),
		parents:       ecs.NewView1[ParentComponent](viewer),
		destroyed:     ecs.NewView1[DestroyComponent](viewer),
	}

	ecs.RegisterSystem(s.sm, &TransformSystem{}, ecs.WithGroup(ecs.LateUpdate))
	ecs.RegisterSystem(s.sm, &RenderGatherSystem{}, ecs.WithGroup(ecs.LateUpdate))
	return s
}

// UUID returns the scene's identity.
func (s *Scene) UUID() uuid.UUID { return s.id }

// Name returns the scene's name.
func (s *Scene) Name() string { return s.name }

// Path returns the path the scene was loaded from, if any.
func (s *Scene) Path() string { return s.path }

// Entities returns the scene's entity manager.
func (s *Scene) Entities() *ecs.EntityManager { return s.em }

// Systems returns the scene's system manager.
func (s *Scene) Systems() *ecs.SystemManager { return s.sm }

// Viewer returns a viewer over the scene's entities.
func (s *Scene) Viewer() ecs.Viewer { return s.viewer }

// RenderObjects returns what the render gather system collected in the last LateUpdate.
func (s *Scene) RenderObjects() []RenderObject {
	gather, ok := ecs.GetSystem[*RenderGatherSystem](s.sm)
	if !ok {
		return nil
	}
	return gather.Objects()
}

// CreateEntity creates an entity with a name, an empty tag and a fresh UUID.
func (s *Scene) CreateEntity(name string) ecs.Entity {
	return s.CreateEntityWithUUID(name, uuid.New())
}

// CreateEntityWithUUID creates an entity with a name, an empty tag and the given UUID.
func (s *Scene) CreateEntityWithUUID(name string, id uuid.UUID) ecs.Entity {
	assert.That(!s.closed, "creating entity %q in closed scene %q", name, s.name)

	e := s.em.CreateEntity()
	ecs.AddComponent[NameComponent](e).Value = name
	ecs.AddComponent[TagComponent](e)
	ecs.AddComponent[UUIDComponent](e).Value = id
	return e
}

// DestroyEntity marks e for destruction at the next CleanDestroyedEntities. Its components stay
// readable until then. Invalid entities are ignored.
func (s *Scene) DestroyEntity(e ecs.Entity) {
	if !s.em.IsValid(e.ID()) {
		return
	}
	ecs.Add[DestroyComponent](s.em, e.ID())
}

// DestroyEntityImmediate destroys e and all of its descendants now. It must not be called while a
// view over the scene is being iterated.
func (s *Scene) DestroyEntityImmediate(e ecs.Entity) {
	if !s.em.IsValid(e.ID()) {
		return
	}
	for _, id := range s.subtree(e.ID()) {
		s.em.DestroyEntity(id)
	}
}

// subtree returns root followed by all of its descendants.
func (s *Scene) subtree(root ecs.EntityID) []ecs.EntityID {
	children := make(map[ecs.EntityID][]ecs.EntityID)
	s.parents.Each(func(e ecs.Entity, p *ParentComponent) {
		children[p.Parent] = append(children[p.Parent], e.ID())
	})

	ids := []ecs.EntityID{root}
	for i := 0; i < len(ids); i++ {
		ids = append(ids, children[ids[i]]...)
	}
	return ids
}

// CleanDestroyedEntities destroys every marked entity together with its descendants and returns
// how many entities were destroyed. Entities whose parent no longer exists are destroyed as well.
func (s *Scene) CleanDestroyedEntities() int {
	// Propagate the marker down the hierarchy until nothing changes.
	for changed := true; changed; {
		changed = false
		var marked []ecs.EntityID
		s.parents.Each(func(e ecs.Entity, p *ParentComponent) {
			if ecs.HasComponent[DestroyComponent](e) {
				return
			}
			if !s.em.IsValid(p.Parent) || ecs.Has[DestroyComponent](s.em, p.Parent) {
				marked = append(marked, e.ID())
			}
		})
		for _, id := range marked {
			ecs.Add[DestroyComponent](s.em, id)
			changed = true
		}
	}

	var doomed []ecs.EntityID
	s.destroyed.Each(func(e ecs.Entity, _ *DestroyComponent) {
		doomed = append(doomed, e.ID())
	})
	for _, id := range doomed {
		s.em.DestroyEntity(id)
	}

	if len(doomed) > 0 {
		s.log.Debug().Int("destroyed", len(doomed)).Int("remaining", s.em.EntityCount()).Msg("cleaned destroyed entities")
	}
	return len(doomed)
}

// SetParent makes parent the parent of child. A zero parent detaches child. Parenting an entity to
// itself or to one of its descendants is a programmer error.
func (s *Scene) SetParent(child, parent ecs.Entity) {
	assert.That(s.em.IsValid(child.ID()), "setting parent of invalid entity %s", child)

	if parent.ID() == ecs.InvalidEntityID {
		ecs.Remove[ParentComponent](s.em, child.ID())
		return
	}
	assert.That(s.em.IsValid(parent.ID()), "parent %s is not a live entity", parent)

	for cur := parent.ID(); cur != ecs.InvalidEntityID; {
		assert.That(cur != child.ID(), "parenting %s to %s would create a cycle", child, parent)
		if cur == child.ID() {
			return
		}
		p := ecs.Get[ParentComponent](s.em, cur)
		if p == nil || !s.em.IsValid(p.Parent) {
			break
		}
		cur = p.Parent
	}

	ecs.Add[ParentComponent](s.em, child.ID()).Parent = parent.ID()
}

// Parent returns e's parent, if it has a live one.
func (s *Scene) Parent(e ecs.Entity) (ecs.Entity, bool) {
	p := ecs.GetComponent[ParentComponent](e)
	if p == nil {
		return ecs.Entity{}, false
	}
	return s.em.Entity(p.Parent)
}

// Children returns the direct children of e.
func (s *Scene) Children(e ecs.Entity) []ecs.Entity {
	var children []ecs.Entity
	s.parents.Each(func(child ecs.Entity, p *ParentComponent) {
		if p.Parent == e.ID() {
			children = append(children, child)
		}
	})
	return children
}

// FindEntityByName returns the first entity with the given name.
func (s *Scene) FindEntityByName(name string) (ecs.Entity, bool) {
	for e, n := range s.names.All() {
		if n.Value == name {
			return e, true
		}
	}
	return ecs.Entity{}, false
}

// FindEntityByUUID returns the entity with the given UUID.
func (s *Scene) FindEntityByUUID(id uuid.UUID) (ecs.Entity, bool) {
	for e, u := range s.uuids.All() {
		if u.Value == id {
			return e, true
		}
	}
	return ecs.Entity{}, false
}

// EntityCount returns the number of live entities, including those marked for destruction.
func (s *Scene) EntityCount() int {
	return s.em.EntityCount()
}

// Update runs the Update group.
func (s *Scene) Update(ctx context.Context, dt float64) {
	s.sm.UpdateGroup(ctx, ecs.Update, dt)
}

// FixedUpdate runs the FixedUpdate group.
func (s *Scene) FixedUpdate(ctx context.Context, dt float64) {
	s.sm.UpdateGroup(ctx, ecs.FixedUpdate, dt)
}

// LateUpdate runs the LateUpdate group.
func (s *Scene) LateUpdate(ctx context.Context, dt float64) {
	s.sm.UpdateGroup(ctx, ecs.LateUpdate, dt)
}

// Frame advances the scene by dt seconds: Update once, FixedUpdate for every whole fixed timestep
// accumulated (at most MaxFixedSteps, dropping the backlog beyond that), LateUpdate once, then the
// deferred-destruction sweep. It returns the number of fixed steps run.
func (s *Scene) Frame(ctx context.Context, dt float64) int {
	ctx, span := s.tracer.Start(ctx, "scene.frame", trace.WithAttributes(attribute.String("scene", s.name)))
	defer span.End()

	s.Update(ctx, dt)

	s.accumulator += dt
	steps := 0
	for s.accumulator >= s.fixedStep && steps < s.maxFixedSteps {
		s.FixedUpdate(ctx, s.fixedStep)
		s.accumulator -= s.fixedStep
		steps++
	}
	if s.accumulator >= s.fixedStep {
		s.log.Warn().Float64("dropped_seconds", s.accumulator).Msg("fixed update falling behind")
		s.accumulator = math.Mod(s.accumulator, s.fixedStep)
	}

	s.LateUpdate(ctx, dt)
	s.CleanDestroyedEntities()
	return steps
}

// Close tears the scene down: systems first, then entities. Closing twice is a no-op.
func (s *Scene) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.sm.Close()
	s.em.Clear()
	s.log.Debug().Msg("scene closed")
}
