package common

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// The returned slice shares memory with the input and must not be modified.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// Perspective creates a right-handed perspective projection that maps view depth
// [near, far] onto the WebGPU clip range [0, 1].
//
// mgl32.Perspective targets the OpenGL [-1, 1] depth range, so the depth row is
// rebuilt here while the x/y scale terms match mgl32.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))
	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// LookAt creates a view matrix that transforms world coordinates into a right-handed
// view space looking down -Z.
//
// Parameters:
//   - eye: camera position in world space
//   - center: target point the camera looks at
//   - up: up vector defining camera orientation
//
// Returns:
//   - mgl32.Mat4: the column-major view matrix
func LookAt(eye, center, up mgl32.Vec3) mgl32.Mat4 {
	if eye.ApproxEqual(center) {
		return mgl32.Ident4()
	}
	return mgl32.LookAtV(eye, center, up)
}

// BuildModelMatrix constructs a model matrix from position, Euler rotation, and scale.
// The rotation order is Y * X * Z (yaw-pitch-roll).
//
// Parameters:
//   - position: translation in world space
//   - rotation: rotation angles in radians around X, Y and Z
//   - scale: scale factors along each axis
//
// Returns:
//   - mgl32.Mat4: the column-major model matrix
func BuildModelMatrix(position, rotation, scale mgl32.Vec3) mgl32.Mat4 {
	r := mgl32.HomogRotate3DY(rotation.Y()).
		Mul4(mgl32.HomogRotate3DX(rotation.X())).
		Mul4(mgl32.HomogRotate3DZ(rotation.Z()))
	return mgl32.Translate3D(position.X(), position.Y(), position.Z()).
		Mul4(r).
		Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
}

// TransformPoint applies m to the point p (w = 1) without a perspective divide.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// PutFloat32 writes v into buf at byte offset off in little-endian order.
func PutFloat32(buf []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
}

// PutMat4 writes a column-major 4x4 matrix into buf starting at byte offset off.
// Sixty-four bytes are written.
func PutMat4(buf []byte, off int, m mgl32.Mat4) {
	for i := 0; i < 16; i++ {
		PutFloat32(buf, off+i*4, m[i])
	}
}
