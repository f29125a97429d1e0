package scene

import (
	"github.com/argus-labs/forge/pkg/ecs"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rotisserie/eris"
)

// Search returns the entities for which the where clause evaluates to true. The clause is an expr
// language expression (https://expr-lang.org/docs/getting-started) evaluated against a map with
// the keys:
//
//	id          entity id string ("index:generation")
//	name, tag   name and tag strings
//	uuid        UUID string
//	components  names of the entity's components
//	transform   map with x, y, z of the world position, nil without a transform
//
// An empty clause matches every entity.
func (s *Scene) Search(where string) ([]ecs.Entity, error) {
	var filter *vm.Program
	if where != "" {
		var err error
		filter, err = expr.Compile(where, expr.AsBool())
		if err != nil {
			return nil, eris.Wrap(err, "failed to parse where clause")
		}
	}

	results := make([]ecs.Entity, 0)
	for e := range s.em.Entities() {
		if filter == nil {
			results = append(results, e)
			continue
		}

		// The map is the vm environment, so the program can only see what toMap exposes.
		output, err := expr.Run(filter, s.toMap(e))
		if err != nil {
			return nil, eris.Wrapf(err, "failed to run filter expression on entity %s", e)
		}
		match, ok := output.(bool)
		if !ok {
			return nil, eris.New("invalid where clause")
		}
		if match {
			results = append(results, e)
		}
	}
	return results, nil
}

func (s *Scene) toMap(e ecs.Entity) map[string]any {
	m := map[string]any{
		"id":         e.ID().String(),
		"name":       "",
		"tag":        "",
		"uuid":       "",
		"components": s.componentNames(e),
		"transform":  nil,
	}
	if n := ecs.GetComponent[NameComponent](e); n != nil {
		m["name"] = n.Value
	}
	if t := ecs.GetComponent[TagComponent](e); t != nil {
		m["tag"] = t.Value
	}
	if u := ecs.GetComponent[UUIDComponent](e); u != nil {
		m["uuid"] = u.Value.String()
	}
	if t := ecs.GetComponent[TransformComponent](e); t != nil {
		p := t.WorldPosition()
		m["transform"] = map[string]any{"x": p.X, "y": p.Y, "z": p.Z}
	}
	return m
}

func (s *Scene) componentNames(e ecs.Entity) []string {
	reg := s.em.Registry()
	names := make([]string, 0)
	s.em.Signature(e.ID()).Range(func(cid uint32) {
		names = append(names, reg.Name(cid))
	})
	return names
}
