package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-cluster/engine/camera"
	"github.com/Carmen-Shannon/oxy-cluster/engine/game_object"
	"github.com/Carmen-Shannon/oxy-cluster/engine/model"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/material"
)

var (
	// ErrNoModel is returned by Add for an object without a Model.
	ErrNoModel = errors.New("scene object has no model")

	// ErrMissingMaterial is returned by Add when a primitive references a material index the
	// object does not provide.
	ErrMissingMaterial = errors.New("scene object is missing a material")
)

// VisitFunc is called once per drawn primitive. Returning an error stops the traversal.
type VisitFunc func(obj game_object.GameObject, mat material.Material, prim model.Primitive) error

// Scene is the geometry provider of a frame: an ordered registry of GameObjects and the
// camera they are viewed through. Traversal order is stable: objects in insertion order,
// then materials in index order, then the primitives of each material in creation order.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Count returns the number of objects in the scene.
	//
	// Returns:
	//   - int: the object count
	Count() int

	// Add validates obj and appends it to the scene. Objects without an ID are assigned one.
	//
	// Parameters:
	//   - obj: the GameObject to add
	//
	// Returns:
	//   - uint64: the assigned object ID
	//   - error: ErrNoModel or ErrMissingMaterial
	Add(obj game_object.GameObject) (uint64, error)

	// Get retrieves an object by its ID. Returns nil if not found.
	//
	// Parameters:
	//   - id: the object's unique ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Remove removes an object by ID. Unknown IDs are ignored.
	//
	// Parameters:
	//   - id: the object's unique ID
	Remove(id uint64)

	// Clear removes all objects from the scene. Does not release GPU resources.
	Clear()

	// Objects returns the objects in traversal order.
	//
	// Returns:
	//   - []game_object.GameObject: a copy of the object list
	Objects() []game_object.GameObject

	// Materials returns every distinct material referenced by the scene in first-use order.
	//
	// Returns:
	//   - []material.Material: the materials
	Materials() []material.Material

	// Primitives returns every distinct primitive referenced by the scene in first-use order.
	//
	// Returns:
	//   - []model.Primitive: the primitives
	Primitives() []model.Primitive

	// Visit walks enabled objects, then their materials, then each material's primitives,
	// calling fn once per primitive.
	//
	// Parameters:
	//   - fn: the callback
	//
	// Returns:
	//   - error: the first error returned by fn
	Visit(fn VisitFunc) error

	// Update advances every object's animation by dt seconds.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)
}

type scene struct {
	mu *sync.RWMutex

	name    string
	cam     camera.Camera
	objects []game_object.GameObject
	nextID  uint64
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new empty Scene viewed through cam.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
//   - error: an error if an option adds an invalid object
func NewScene(name string, cam camera.Camera, options ...SceneBuilderOption) (Scene, error) {
	s := &scene{
		mu:     &sync.RWMutex{},
		name:   name,
		cam:    cam,
		nextID: 1,
	}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *scene) Add(obj game_object.GameObject) (uint64, error) {
	if err := validate(obj); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(obj), nil
}

// add assigns an ID when needed and appends obj. Caller must hold the write lock.
func (s *scene) add(obj game_object.GameObject) uint64 {
	if obj.ID() == 0 {
		obj.SetID(s.nextID)
		s.nextID++
	} else if obj.ID() >= s.nextID {
		s.nextID = obj.ID() + 1
	}
	s.objects = append(s.objects, obj)
	return obj.ID()
}

// validate checks that obj has a model and a material for every primitive.
func validate(obj game_object.GameObject) error {
	if obj.Model() == nil {
		return ErrNoModel
	}
	for _, p := range obj.Model().Primitives() {
		if i := p.MaterialIndex(); i < 0 || i >= len(obj.Materials()) || obj.Materials()[i] == nil {
			return fmt.Errorf("%w: model %q primitive %q uses material %d, object has %d",
				ErrMissingMaterial, obj.Model().Name(), p.Name(), i, len(obj.Materials()))
		}
	}
	return nil
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, obj := range s.objects {
		if obj.ID() == id {
			return obj
		}
	}
	return nil
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, obj := range s.objects {
		if obj.ID() == id {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			return
		}
	}
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = nil
}

func (s *scene) Objects() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]game_object.GameObject, len(s.objects))
	copy(out, s.objects)
	return out
}

func (s *scene) Materials() []material.Material {
	seen := make(map[material.Material]bool)
	var out []material.Material
	for _, obj := range s.Objects() {
		for _, m := range obj.Materials() {
			if m != nil && !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

func (s *scene) Primitives() []model.Primitive {
	seen := make(map[model.Primitive]bool)
	var out []model.Primitive
	for _, obj := range s.Objects() {
		for _, p := range obj.Model().Primitives() {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

func (s *scene) Visit(fn VisitFunc) error {
	for _, obj := range s.Objects() {
		if !obj.Enabled() {
			continue
		}
		for i, mat := range obj.Materials() {
			for _, prim := range obj.Model().PrimitivesOf(i) {
				if err := fn(obj, mat, prim); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *scene) Update(dt float32) {
	for _, obj := range s.Objects() {
		obj.Update(dt)
	}
}
