package strategy

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/camera"
	"github.com/Carmen-Shannon/oxy-cluster/engine/cluster"
	"github.com/Carmen-Shannon/oxy-cluster/engine/game_object"
	"github.com/Carmen-Shannon/oxy-cluster/engine/light"
	"github.com/Carmen-Shannon/oxy-cluster/engine/model"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-cluster/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// frameResources is the state both strategies share: the systems they read, the scene
// resources they uploaded, and the cached lighting bind group.
type frameResources struct {
	gpu      renderer.Renderer
	lights   light.System
	clusters cluster.System
	cam      camera.Camera
	scene    scene.Scene

	clearColor wgpu.Color

	// lighting binds buffers owned by the light and cluster systems. It is rebuilt only when
	// the cluster system's generation moves.
	lighting    bind_group_provider.BindGroupProvider
	lightingGen uint64

	meshes  map[model.Primitive]bool
	objects map[game_object.GameObject]bool
}

func newFrameResources(gpu renderer.Renderer, lights light.System, clusters cluster.System, cam camera.Camera) *frameResources {
	return &frameResources{
		gpu:        gpu,
		lights:     lights,
		clusters:   clusters,
		cam:        cam,
		clearColor: wgpu.Color{R: 0.01, G: 0.01, B: 0.015, A: 1},
		meshes:     make(map[model.Primitive]bool),
		objects:    make(map[game_object.GameObject]bool),
	}
}

// initScene binds s and uploads the camera group and every drawable the scene holds now.
// Objects added later are uploaded on their first draw.
func (r *frameResources) initScene(s scene.Scene) error {
	r.scene = s
	if err := r.gpu.InitBindGroup(r.cam.BindGroupProvider(), CameraLayout(), nil, nil); err != nil {
		return fmt.Errorf("camera bind group: %w", err)
	}
	for _, obj := range s.Objects() {
		for i, mat := range obj.Materials() {
			for _, prim := range obj.Model().PrimitivesOf(i) {
				if err := r.ensureDrawable(obj, mat, prim); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ensureDrawable uploads whatever part of one draw has not reached the GPU yet.
func (r *frameResources) ensureDrawable(obj game_object.GameObject, mat material.Material, prim model.Primitive) error {
	if !r.meshes[prim] {
		if err := r.gpu.InitMeshBuffers(prim.MeshProvider(), prim.VertexData(), prim.IndexData(), prim.IndexCount()); err != nil {
			return fmt.Errorf("mesh %q: %w", prim.Name(), err)
		}
		r.meshes[prim] = true
	}
	if err := mat.Initialize(r.gpu); err != nil {
		return err
	}
	if !r.objects[obj] {
		if err := r.gpu.InitBindGroup(obj.BindGroupProvider(), ObjectLayout(), nil, nil); err != nil {
			return fmt.Errorf("object %d: %w", obj.ID(), err)
		}
		r.objects[obj] = true
	}
	return nil
}

// writeFrameUniforms stages the camera uniform and the transform of every enabled object.
func (r *frameResources) writeFrameUniforms() {
	cu := r.cam.Uniform()
	writes := []bind_group_provider.BufferWrite{{
		Provider: r.cam.BindGroupProvider(),
		Binding:  0,
		Data:     cu.Marshal(),
	}}
	for _, obj := range r.scene.Objects() {
		if !obj.Enabled() || !r.objects[obj] {
			continue
		}
		md := obj.ModelData()
		writes = append(writes, bind_group_provider.BufferWrite{
			Provider: obj.BindGroupProvider(),
			Binding:  0,
			Data:     md.Marshal(),
		})
	}
	r.gpu.WriteBuffers(writes)
}

// lightingGroup returns the lighting bind group, rebuilding it when the cluster buffer was
// reallocated or the light count changed since it was built.
func (r *frameResources) lightingGroup() (bind_group_provider.BindGroupProvider, error) {
	gen := r.clusters.Generation()
	if r.lighting != nil && gen == r.lightingGen {
		return r.lighting, nil
	}

	if r.lighting == nil {
		r.lighting = bind_group_provider.NewBindGroupProvider("clustered lighting")
	} else {
		r.lighting.InvalidateBindGroup()
	}
	r.lighting.ShareBuffer(0, r.lights.LightBuffer())
	r.lighting.ShareBuffer(1, r.clusters.ClusterBuffer())
	r.lighting.ShareBuffer(2, r.clusters.UniformBuffer())
	if err := r.gpu.InitBindGroup(r.lighting, LightingLayout(), nil, nil); err != nil {
		return nil, fmt.Errorf("lighting bind group: %w", err)
	}
	r.lightingGen = gen
	common.Logger().Debug("lighting bind group rebuilt", "generation", gen)
	return r.lighting, nil
}

// drawScene records one draw per visible primitive with the camera, object and material
// groups at 0..2, followed by extra.
func (r *frameResources) drawScene(pipelineKey string, extra ...bind_group_provider.BindGroupProvider) error {
	camGroup := r.cam.BindGroupProvider()
	return r.scene.Visit(func(obj game_object.GameObject, mat material.Material, prim model.Primitive) error {
		if err := r.ensureDrawable(obj, mat, prim); err != nil {
			return err
		}
		groups := append([]bind_group_provider.BindGroupProvider{
			camGroup,
			obj.BindGroupProvider(),
			mat.BindGroupProvider(),
		}, extra...)
		return r.gpu.DrawCall(pipelineKey, prim.MeshProvider(), 1, groups)
	})
}

// release frees the lighting group. Its buffers are shared and stay with their systems.
func (r *frameResources) release() {
	if r.lighting != nil {
		r.lighting.Release()
		r.lighting = nil
	}
	r.lightingGen = 0
}
