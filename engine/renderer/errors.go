package renderer

import "errors"

var (
	// ErrDeviceLost is returned when the GPU device can no longer record or submit work.
	// It is fatal for the session.
	ErrDeviceLost = errors.New("renderer: device lost")

	// ErrSurfaceLost is returned when the swapchain texture cannot be acquired.
	ErrSurfaceLost = errors.New("renderer: surface lost")

	// ErrNoFrame is returned when a recording call is made outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("renderer: no frame in progress")

	// ErrPipelineNotFound is returned when a pipeline key has not been registered.
	ErrPipelineNotFound = errors.New("renderer: pipeline not found")
)
