//go:build windows

package gui

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"screen-translator/src/screenshot"
	"screen-translator/src/selection"
)

const (
	overlayClassName       = "ScreenTranslatorSelection"
	overlayAlpha           = 90 // of 255
	outlineColor           = 0x0000FF
	outlineWidth           = 2
	keyPollTimerID         = 1
	keyPollIntervalMs      = 25
	wsExLayered            = 0x00080000
	lwaAlpha               = 0x00000002
	selectionHintLine      = "Drag to select the text to translate   ESC cancels"
	selectionWindowCaption = "Select region to translate"
)

var (
	user32                         = windows.NewLazySystemDLL("user32.dll")
	gdi32                          = windows.NewLazySystemDLL("gdi32.dll")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
	procAllowSetForegroundWindow   = user32.NewProc("AllowSetForegroundWindow")
	procGetAsyncKeyState           = user32.NewProc("GetAsyncKeyState")
	procCreatePen                  = gdi32.NewProc("CreatePen")
	procRectangle                  = gdi32.NewProc("Rectangle")
)

// Only one overlay exists at a time; the window procedure reads this state
// on the thread that runs selectRegion.
var (
	selectMu sync.Mutex

	classOnce sync.Once
	classErr  error
	className *uint16
	cursor    win.HCURSOR

	activeTracker *selection.Tracker
	activeOrigin  screenshot.Point
	escapeWasDown bool
)

func registerOverlayClass() {
	className = syscall.StringToUTF16Ptr(overlayClassName)
	cursor = win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS))
	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   syscall.NewCallback(overlayWndProc),
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       cursor,
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wndClass) == 0 {
		classErr = fmt.Errorf("failed to register overlay window class")
	}
}

func selectRegion(ctx context.Context, t *selection.Tracker) (screenshot.Region, bool, error) {
	selectMu.Lock()
	defer selectMu.Unlock()

	// The window and its message loop must stay on one OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	classOnce.Do(registerOverlayClass)
	if classErr != nil {
		return screenshot.Region{}, false, classErr
	}

	vx := win.GetSystemMetrics(win.SM_XVIRTUALSCREEN)
	vy := win.GetSystemMetrics(win.SM_YVIRTUALSCREEN)
	vw := win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN)
	vh := win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN)
	log.Printf("OVERLAY: virtual screen x=%d y=%d w=%d h=%d", vx, vy, vw, vh)

	activeTracker = t
	activeOrigin = screenshot.Point{X: int(vx), Y: int(vy)}
	escapeWasDown = false
	defer func() { activeTracker = nil }()

	hwnd := win.CreateWindowEx(
		win.WS_EX_TOPMOST|win.WS_EX_TOOLWINDOW|wsExLayered,
		className,
		syscall.StringToUTF16Ptr(selectionWindowCaption),
		win.WS_POPUP|win.WS_VISIBLE,
		vx, vy, vw, vh,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if hwnd == 0 {
		return screenshot.Region{}, false, fmt.Errorf("failed to create overlay window")
	}
	defer win.DestroyWindow(hwnd)

	procSetLayeredWindowAttributes.Call(uintptr(hwnd), 0, overlayAlpha, lwaAlpha)
	win.ShowWindow(hwnd, win.SW_SHOW)
	procAllowSetForegroundWindow.Call(uintptr(os.Getpid()))
	win.SetForegroundWindow(hwnd)
	win.BringWindowToTop(hwnd)
	win.SetFocus(hwnd)
	win.UpdateWindow(hwnd)

	if win.SetTimer(hwnd, keyPollTimerID, keyPollIntervalMs, 0) == 0 {
		log.Printf("OVERLAY: failed to start keyboard poll timer")
	}

	// A superseding run closes the overlay from another goroutine.
	stop := context.AfterFunc(ctx, func() {
		win.PostMessage(hwnd, win.WM_CLOSE, 0, 0)
	})
	defer stop()

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			t.Close()
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)

		select {
		case <-t.Done():
		default:
			continue
		}
		break
	}

	if err := ctx.Err(); err != nil {
		return screenshot.Region{}, true, err
	}
	region, cancelled := t.Result()
	return region, cancelled, nil
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	t := activeTracker
	if t == nil {
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}

	switch msg {
	case win.WM_LBUTTONDOWN, win.WM_RBUTTONDOWN, win.WM_MBUTTONDOWN:
		if t.Press(clientPoint(lParam, activeOrigin), buttonFor(msg)) {
			win.SetCapture(hwnd)
			win.InvalidateRect(hwnd, nil, false)
		}
		return 0

	case win.WM_MOUSEMOVE:
		if t.Move(clientPoint(lParam, activeOrigin)) {
			win.InvalidateRect(hwnd, nil, false)
		}
		return 0

	case win.WM_LBUTTONUP, win.WM_RBUTTONUP, win.WM_MBUTTONUP:
		if t.Release(clientPoint(lParam, activeOrigin), buttonFor(msg)) {
			win.ReleaseCapture()
		}
		return 0

	case win.WM_KEYDOWN:
		if wParam == win.VK_ESCAPE {
			escapeWasDown = true
			t.Escape()
		}
		return 0

	case win.WM_TIMER:
		if wParam == keyPollTimerID {
			pollEscape(t)
		}
		return 0

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		paintOverlay(hdc, &ps.RcPaint, t)
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_ERASEBKGND:
		return 1

	case win.WM_SETCURSOR:
		if cursor != 0 {
			win.SetCursor(cursor)
		}
		return 1

	case win.WM_NCHITTEST:
		return uintptr(win.HTCLIENT)

	case win.WM_CLOSE:
		t.Close()
		return 0

	case win.WM_DESTROY:
		win.KillTimer(hwnd, keyPollTimerID)
		// No PostQuitMessage: a stray WM_QUIT would end the next
		// selection's loop immediately.
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func buttonFor(msg uint32) selection.Button {
	switch msg {
	case win.WM_RBUTTONDOWN, win.WM_RBUTTONUP:
		return selection.ButtonSecondary
	case win.WM_MBUTTONDOWN, win.WM_MBUTTONUP:
		return selection.ButtonMiddle
	}
	return selection.ButtonPrimary
}

// pollEscape catches Escape when the overlay could not take keyboard focus.
func pollEscape(t *selection.Tracker) {
	state, _, _ := procGetAsyncKeyState.Call(uintptr(win.VK_ESCAPE))
	s := uint16(state)
	down := s&0x8000 != 0
	if !escapeWasDown && (down || s&0x0001 != 0) {
		log.Printf("OVERLAY: escape detected via async polling")
		t.Escape()
	}
	escapeWasDown = down
}

func paintOverlay(hdc win.HDC, dirty *win.RECT, t *selection.Tracker) {
	win.FillRect(hdc, dirty, win.HBRUSH(win.GetStockObject(win.BLACK_BRUSH)))

	win.SetBkMode(hdc, win.TRANSPARENT)
	win.SetTextColor(hdc, win.COLORREF(0x00FFFFFF))
	hint := syscall.StringToUTF16(selectionHintLine)
	win.TextOut(hdc, 16, 16, &hint[0], int32(len(hint)-1))

	outline, ok := t.Outline()
	if !ok {
		return
	}
	left := int32(outline.X - activeOrigin.X)
	top := int32(outline.Y - activeOrigin.Y)

	pen, _, _ := procCreatePen.Call(0, outlineWidth, outlineColor)
	if pen == 0 {
		return
	}
	oldPen := win.SelectObject(hdc, win.HGDIOBJ(pen))
	oldBrush := win.SelectObject(hdc, win.GetStockObject(win.NULL_BRUSH))
	procRectangle.Call(uintptr(hdc),
		uintptr(left), uintptr(top),
		uintptr(left+int32(outline.Width)), uintptr(top+int32(outline.Height)))
	win.SelectObject(hdc, oldPen)
	win.SelectObject(hdc, oldBrush)
	win.DeleteObject(win.HGDIOBJ(pen))
}
