// Package window owns the presentation window of a benchmark run: its surface descriptor, its
// framebuffer size, and the input events that steer the camera rig.
package window

import (
	"errors"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNotInitialized is returned by operations on a window whose platform window is gone.
var ErrNotInitialized = errors.New("window is not initialized")

// Window is the on-screen presentation target of a benchmark run.
//
// Sizes are framebuffer sizes in pixels, which can differ from the window size on high-DPI
// displays. A minimized window reports a zero size. All methods except RequestClose must be
// called from the goroutine that created the window.
type Window interface {
	// SetFrameCallback sets the function called once per event loop iteration, after events
	// have been dispatched.
	//
	// Parameters:
	//   - callback: the per-iteration function, or nil to disable
	SetFrameCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer size changes. Minimizing
	// the window reports 0x0.
	//
	// Parameters:
	//   - callback: function receiving the new framebuffer width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse wheel events.
	//
	// Parameters:
	//   - callback: function receiving the vertical scroll delta, positive when scrolling up
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and key repeat events.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code, see the common key constants
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetDragCallback sets the callback for mouse movement while the middle button is held.
	//
	// Parameters:
	//   - callback: function receiving the cursor movement since the last event, in pixels
	SetDragCallback(callback func(dx, dy float32))

	// SetCloseCallback sets the callback invoked when the user asks to close the window.
	//
	// Parameters:
	//   - callback: the function to call, or nil to disable
	SetCloseCallback(callback func())

	// Run pumps window events until the window is closed or RequestClose is called, invoking the
	// frame callback after every iteration.
	Run()

	// RequestClose asks the event loop to stop after the current iteration. Safe to call from
	// any goroutine and more than once.
	RequestClose()

	// IsRunning reports whether the event loop should keep going.
	//
	// Returns:
	//   - bool: false once the window was closed or a close was requested
	IsRunning() bool

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: ErrNotInitialized if the window was already closed
	Close() error

	// SurfaceDescriptor returns the platform surface descriptor the wgpu renderer presents to.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil once the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	mu *sync.Mutex

	title     string
	width     int
	height    int
	minWidth  int
	minHeight int
	maximized bool
	resizable bool

	closeRequested bool

	// platform is the platform window state, *glfwWindow while open and nil after Close.
	platform *glfwWindow

	onFrame   func()
	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(keyCode uint32)
	onDrag    func(dx, dy float32)
	onClose   func()
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window. The calling goroutine is locked to its OS thread, since
// the platform event loop has to stay on the thread that created the window.
//
// Parameters:
//   - options: a variadic list of WindowBuilderOption functions
//
// Returns:
//   - Window: the open window
//   - error: an error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		mu:        &sync.Mutex{},
		title:     "oxy-bench",
		width:     512,
		height:    512,
		minWidth:  64,
		minHeight: 64,
		resizable: true,
	}
	for _, opt := range options {
		opt(w)
	}

	runtime.LockOSThread()
	if err := newPlatformWindow(w); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *engineWindow) SetFrameCallback(callback func()) {
	w.onFrame = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetDragCallback(callback func(dx, dy float32)) {
	w.onDrag = callback
}

func (w *engineWindow) SetCloseCallback(callback func()) {
	w.onClose = callback
}

func (w *engineWindow) Run() {
	for w.IsRunning() {
		if !w.platform.pollEvents() {
			break
		}
		if w.onFrame != nil {
			w.onFrame()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) RequestClose() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeRequested = true
}

func (w *engineWindow) IsRunning() bool {
	w.mu.Lock()
	requested := w.closeRequested
	w.mu.Unlock()
	if requested || w.platform == nil {
		return false
	}
	return !w.platform.shouldClose()
}

func (w *engineWindow) Close() error {
	if w.platform == nil {
		return ErrNotInitialized
	}
	w.platform.destroy()
	w.platform = nil
	return nil
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	return w.platform.surfaceDescriptor()
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// setFramebufferSize records a new framebuffer size and notifies the resize callback.
func (w *engineWindow) setFramebufferSize(width, height int) {
	if width == w.width && height == w.height {
		return
	}
	w.width, w.height = width, height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
