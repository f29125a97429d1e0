package scene

import (
	"github.com/argus-labs/forge/pkg/ecs"
	"github.com/google/uuid"
)

// NameComponent is the display name every scene entity carries.
type NameComponent struct {
	Value string
}

func (NameComponent) Name() string { return "name" }

// TagComponent groups entities for gameplay lookups.
type TagComponent struct {
	Value string
}

func (TagComponent) Name() string { return "tag" }

// UUIDComponent is the persistent identity of a scene entity. Unlike the EntityID it survives
// reloads.
type UUIDComponent struct {
	Value uuid.UUID
}

func (UUIDComponent) Name() string { return "uuid" }

// ParentComponent links an entity to its parent in the scene hierarchy.
type ParentComponent struct {
	Parent ecs.EntityID
}

func (ParentComponent) Name() string { return "parent" }

// DestroyComponent marks an entity for removal at the end of the frame.
type DestroyComponent struct{}

func (DestroyComponent) Name() string { return "destroy" }

// MeshRendererComponent makes an entity visible to the render gather pass.
type MeshRendererComponent struct {
	Mesh     string
	Material string
	Enabled  bool
}

func (MeshRendererComponent) Name() string { return "mesh_renderer" }

// TransformComponent holds an entity's local position and scale relative to its parent, and the
// world values TransformSystem last resolved for it. The zero value sits at the origin with unit
// scale.
type TransformComponent struct {
	localPosition Vec3
	localScale    Vec3 // Stored as an offset from One so the zero value is unit scale
	worldPosition Vec3
	worldScale    Vec3 // Offset from One, as localScale
}

func (TransformComponent) Name() string { return "transform" }

// LocalPosition returns the position relative to the parent.
func (t *TransformComponent) LocalPosition() Vec3 { return t.localPosition }

// SetLocalPosition sets the position relative to the parent.
func (t *TransformComponent) SetLocalPosition(p Vec3) { t.localPosition = p }

// LocalScale returns the scale relative to the parent.
func (t *TransformComponent) LocalScale() Vec3 { return t.localScale.Add(One) }

// SetLocalScale sets the scale relative to the parent.
func (t *TransformComponent) SetLocalScale(s Vec3) { t.localScale = s.Add(One.Scale(-1)) }

// WorldPosition returns the position resolved by the last TransformSystem update.
func (t *TransformComponent) WorldPosition() Vec3 { return t.worldPosition }

// WorldScale returns the scale resolved by the last TransformSystem update.
func (t *TransformComponent) WorldScale() Vec3 { return t.worldScale.Add(One) }

func (t *TransformComponent) setWorld(position, scale Vec3) {
	t.worldPosition = position
	t.worldScale = scale.Add(One.Scale(-1))
}
