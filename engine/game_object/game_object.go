package game_object

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/model"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// objectCount is an atomic counter used to generate unique bind group provider names.
var objectCount atomic.Uint64

type gameObject struct {
	mu sync.Mutex

	id        uint64
	enabled   atomic.Bool
	mdl       model.Model
	materials []material.Material

	position      mgl32.Vec3
	rotation      mgl32.Vec3
	rotationSpeed mgl32.Vec3
	scale         mgl32.Vec3

	provider bind_group_provider.BindGroupProvider
}

// GameObject defines the interface for a scene node: a Model placed in the world with a
// transform and the materials its primitives are drawn with. Each object owns a bind group
// provider holding its ModelData uniform.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Enabled returns whether this object is enabled for rendering.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// Model returns the Model associated with this object, or nil if not set.
	//
	// Returns:
	//   - model.Model: the associated model or nil
	Model() model.Model

	// Materials returns the materials indexed by the model's primitive material indices.
	//
	// Returns:
	//   - []material.Material: the materials
	Materials() []material.Material

	// Position returns the world-space position.
	Position() mgl32.Vec3

	// Rotation returns the Euler rotation in radians.
	Rotation() mgl32.Vec3

	// RotationSpeed returns the spin in radians per second applied by Update.
	RotationSpeed() mgl32.Vec3

	// Scale returns the per-axis scale.
	Scale() mgl32.Vec3

	// ModelMatrix returns the model-to-world matrix built from position, rotation and scale.
	//
	// Returns:
	//   - mgl32.Mat4: the column-major model matrix
	ModelMatrix() mgl32.Mat4

	// ModelData returns the GPU uniform for the current transform.
	ModelData() model.GPUModelData

	// BindGroupProvider returns the provider holding the object's ModelData uniform.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the object provider
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Update advances the rotation by RotationSpeed * dt.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)

	// SetID sets the object's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// SetEnabled sets whether the object is enabled for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetPosition sets the world-space position.
	//
	// Parameters:
	//   - p: the new position
	SetPosition(p mgl32.Vec3)

	// SetRotation sets the Euler rotation in radians.
	//
	// Parameters:
	//   - r: the new rotation
	SetRotation(r mgl32.Vec3)

	// SetScale sets the per-axis scale.
	//
	// Parameters:
	//   - s: the new scale factors
	SetScale(s mgl32.Vec3)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new enabled GameObject configured with the given options.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		scale: mgl32.Vec3{1, 1, 1},
		provider: bind_group_provider.NewBindGroupProvider(
			"object_" + strconv.FormatUint(objectCount.Add(1), 10),
		),
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.id
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) Model() model.Model {
	return g.mdl
}

func (g *gameObject) Materials() []material.Material {
	return g.materials
}

func (g *gameObject) Position() mgl32.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.position
}

func (g *gameObject) Rotation() mgl32.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rotation
}

func (g *gameObject) RotationSpeed() mgl32.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rotationSpeed
}

func (g *gameObject) Scale() mgl32.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scale
}

func (g *gameObject) ModelMatrix() mgl32.Mat4 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return common.BuildModelMatrix(g.position, g.rotation, g.scale)
}

func (g *gameObject) ModelData() model.GPUModelData {
	return model.NewGPUModelData(g.ModelMatrix())
}

func (g *gameObject) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return g.provider
}

func (g *gameObject) Update(dt float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotation = g.rotation.Add(g.rotationSpeed.Mul(dt))
}

func (g *gameObject) SetID(id uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.id = id
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) SetPosition(p mgl32.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position = p
}

func (g *gameObject) SetRotation(r mgl32.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotation = r
}

func (g *gameObject) SetScale(s mgl32.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scale = s
}
