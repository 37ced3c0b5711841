//go:build windows

package render

import (
	"fmt"
	"image"
	"log"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"

	"screen-translator/src/screenshot"
)

const (
	overlayClassName = "ScreenTranslatorResult"
	maNoActivate     = 3
)

var (
	registerOnce sync.Once
	registerErr  error
	className    *uint16

	windowsMu     sync.Mutex
	windowsByHwnd = map[win.HWND]*nativeWindow{}
)

// NativeSurface opens borderless, topmost tool windows that stay out of the
// taskbar. Each window runs its own message loop on a locked OS thread.
type NativeSurface struct{}

func NewNativeSurface() *NativeSurface { return &NativeSurface{} }

type nativeWindow struct {
	hwnd      win.HWND
	frame     *image.RGBA
	onDismiss func()
	closeOnce sync.Once
	ready     chan error
	done      chan struct{}
}

func (NativeSurface) Open(region screenshot.Region, frame *image.RGBA, onDismiss func()) (Window, error) {
	w := &nativeWindow{
		frame:     frame,
		onDismiss: onDismiss,
		ready:     make(chan error, 1),
		done:      make(chan struct{}),
	}
	go w.run(region)
	if err := <-w.ready; err != nil {
		return nil, err
	}
	return w, nil
}

// Close posts WM_CLOSE and waits until the message loop has exited and the
// window's GDI objects are gone.
func (w *nativeWindow) Close() error {
	w.closeOnce.Do(func() {
		win.PostMessage(w.hwnd, win.WM_CLOSE, 0, 0)
	})
	<-w.done
	return nil
}

func (w *nativeWindow) run(region screenshot.Region) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(w.done)

	registerOnce.Do(registerClass)
	if registerErr != nil {
		w.ready <- registerErr
		return
	}

	hwnd := win.CreateWindowEx(
		win.WS_EX_TOPMOST|win.WS_EX_TOOLWINDOW,
		className,
		syscall.StringToUTF16Ptr("Translation"),
		win.WS_POPUP,
		int32(region.X), int32(region.Y), int32(region.Width), int32(region.Height),
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if hwnd == 0 {
		w.ready <- fmt.Errorf("failed to create result window")
		return
	}
	w.hwnd = hwnd
	windowsMu.Lock()
	windowsByHwnd[hwnd] = w
	windowsMu.Unlock()
	defer func() {
		windowsMu.Lock()
		delete(windowsByHwnd, hwnd)
		windowsMu.Unlock()
	}()

	win.ShowWindow(hwnd, win.SW_SHOWNOACTIVATE)
	win.UpdateWindow(hwnd)
	w.ready <- nil

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
	log.Printf("RENDER: window %v closed", hwnd)
}

func registerClass() {
	className = syscall.StringToUTF16Ptr(overlayClassName)
	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		LpfnWndProc:   syscall.NewCallback(resultWndProc),
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_HAND)),
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wndClass) == 0 {
		registerErr = fmt.Errorf("failed to register result window class")
	}
}

func lookup(hwnd win.HWND) *nativeWindow {
	windowsMu.Lock()
	defer windowsMu.Unlock()
	return windowsByHwnd[hwnd]
}

func resultWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		if w := lookup(hwnd); w != nil {
			blitFrame(hdc, w.frame)
		}
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_LBUTTONDOWN, win.WM_RBUTTONDOWN, win.WM_MBUTTONDOWN:
		if w := lookup(hwnd); w != nil && w.onDismiss != nil {
			// Close waits for this loop to exit, so it must not run here.
			go w.onDismiss()
		}
		return 0

	case win.WM_MOUSEACTIVATE:
		return maNoActivate

	case win.WM_DESTROY:
		win.PostQuitMessage(0)
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

// blitFrame copies frame into hdc through a temporary DIB section. Every GDI
// object created here is released before returning.
func blitFrame(hdc win.HDC, frame *image.RGBA) {
	width := frame.Rect.Dx()
	height := frame.Rect.Dy()
	if width == 0 || height == 0 {
		return
	}

	memDC := win.CreateCompatibleDC(hdc)
	if memDC == 0 {
		return
	}
	defer win.DeleteDC(memDC)

	header := win.BITMAPINFOHEADER{
		BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
		BiWidth:       int32(width),
		BiHeight:      -int32(height), // top-down
		BiPlanes:      1,
		BiBitCount:    32,
		BiCompression: win.BI_RGB,
	}
	var pBits unsafe.Pointer
	hBitmap := win.CreateDIBSection(memDC, &header, win.DIB_RGB_COLORS, &pBits, 0, 0)
	if hBitmap == 0 || pBits == nil {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(hBitmap))

	oldBitmap := win.SelectObject(memDC, win.HGDIOBJ(hBitmap))
	defer win.SelectObject(memDC, oldBitmap)

	// 32bpp rows are already DWORD aligned.
	dst := unsafe.Slice((*byte)(pBits), width*height*4)
	for y := 0; y < height; y++ {
		src := frame.Pix[y*frame.Stride : y*frame.Stride+width*4]
		row := dst[y*width*4 : (y+1)*width*4]
		for x := 0; x < width*4; x += 4 {
			row[x] = src[x+2]   // B
			row[x+1] = src[x+1] // G
			row[x+2] = src[x]   // R
			row[x+3] = 255
		}
	}

	win.BitBlt(hdc, 0, 0, int32(width), int32(height), memDC, 0, 0, win.SRCCOPY)
}
