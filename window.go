package vstbridge

import "gosuda.org/vstbridge/abi"

// Embedder places the worker's editor window inside the host's window tree.
// It runs on the caller side when the host opens the editor.
type Embedder interface {
	Embed(parent, child uintptr, rect abi.Rect) error
}

// WindowSystem owns the native window the plugin draws its editor into.
// It runs on the worker side, on the control thread.
type WindowSystem interface {
	// CreateWindow returns the handle passed to the plugin and the handle
	// reported to the caller for embedding.
	CreateWindow() (window, embed uintptr, err error)
	ResizeWindow(window uintptr, rect abi.Rect)
	ShowWindow(window uintptr)
	DestroyWindow(window uintptr)
}
