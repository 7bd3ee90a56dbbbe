package fabric

import "github.com/google/uuid"

// Scene is the aggregated, deduplicated set of scene objects handed to a
// Renderer. The executor rebuilds its own Scene every tick; nodes never see it.
type Scene struct {
	objects []SceneObject
	index   map[uuid.UUID]struct{}
}

// NewScene creates a scene holding objects, dropping nil entries and
// duplicate ids.
func NewScene(objects ...SceneObject) *Scene {
	s := &Scene{index: make(map[uuid.UUID]struct{}, len(objects))}
	for _, o := range objects {
		s.add(o)
	}
	return s
}

// add appends obj unless it is nil or already present. Reports whether it was
// added.
func (s *Scene) add(obj SceneObject) bool {
	if obj == nil {
		return false
	}
	id := obj.ObjectID()
	if _, dup := s.index[id]; dup {
		return false
	}
	s.index[id] = struct{}{}
	s.objects = append(s.objects, obj)
	return true
}

func (s *Scene) reset() {
	for i := range s.objects {
		s.objects[i] = nil
	}
	s.objects = s.objects[:0]
	clear(s.index)
}

// Objects returns the objects in first-seen order. The slice must not be
// mutated.
func (s *Scene) Objects() []SceneObject { return s.objects }

// Len returns the number of objects.
func (s *Scene) Len() int { return len(s.objects) }

// Contains reports whether an object with the given id is present.
func (s *Scene) Contains(id uuid.UUID) bool {
	_, ok := s.index[id]
	return ok
}

// Flatten walks the scene depth-first, children after their parent, visiting
// each object id once.
func (s *Scene) Flatten(visit func(SceneObject)) {
	seen := make(map[uuid.UUID]struct{}, len(s.objects))
	stack := make([]SceneObject, 0, len(s.objects))
	for i := len(s.objects) - 1; i >= 0; i-- {
		stack = append(stack, s.objects[i])
	}
	for len(stack) > 0 {
		obj := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if obj == nil {
			continue
		}
		if _, dup := seen[obj.ObjectID()]; dup {
			continue
		}
		seen[obj.ObjectID()] = struct{}{}
		visit(obj)
		children := obj.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}
