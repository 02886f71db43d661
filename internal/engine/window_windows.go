//go:build windows

package engine

import (
	"syscall"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	dwmapi                    = syscall.NewLazyDLL("dwmapi.dll")
	procDwmSetWindowAttribute = dwmapi.NewProc("DwmSetWindowAttribute")
)

const (
	dwmwaUseImmersiveDarkMode = 20
	dwmwaBorderColor          = 34
	dwmwaCaptionColor         = 35
)

// styleWindow gives the title bar the sketch's clear color, and dark mode
// when that color is dark.
func styleWindow(window *glfw.Window, clear mgl32.Vec4) {
	win32 := window.GetWin32Window()
	if win32 == nil {
		return
	}
	hwnd := unsafe.Pointer(win32)
	var dark int32
	if 0.2126*clear[0]+0.7152*clear[1]+0.0722*clear[2] < 0.5 {
		dark = 1
	}
	setAttribute(hwnd, dwmwaUseImmersiveDarkMode, unsafe.Pointer(&dark), unsafe.Sizeof(dark))

	// COLORREF is 0x00BBGGRR.
	bgr := uint32(uint8(clear[0]*255)) | uint32(uint8(clear[1]*255))<<8 | uint32(uint8(clear[2]*255))<<16
	setAttribute(hwnd, dwmwaBorderColor, unsafe.Pointer(&bgr), unsafe.Sizeof(bgr))
	setAttribute(hwnd, dwmwaCaptionColor, unsafe.Pointer(&bgr), unsafe.Sizeof(bgr))
}

func setAttribute(hwnd unsafe.Pointer, attr uintptr, value unsafe.Pointer, size uintptr) {
	procDwmSetWindowAttribute.Call(uintptr(hwnd), attr, uintptr(value), size)
}
