package oauth

import (
	"sync"
	"time"

	"github.com/shrutimovaliya24/softcool/internal/models"
	"go.uber.org/zap"
)

// Popup window geometry.
const (
	PopupWidth  = 500
	PopupHeight = 600
)

// DefaultTimeout bounds how long the opener waits for the callback message.
const DefaultTimeout = 10 * time.Minute

// MessageEvent is a message delivered to the opener window.
type MessageEvent struct {
	Origin string
	Data   Message
}

// PopupFeatures positions the popup.
type PopupFeatures struct {
	Width, Height, Left, Top int
}

// Popup is an opened window. Close may fail or panic when the
// cross-origin-opener policy severs the reference.
type Popup interface {
	Close() error
}

// Window is the opener side of the flow.
type Window interface {
	Origin() string
	ScreenSize() (width, height int)
	// Open returns ok=false when the popup was blocked.
	Open(url string, features PopupFeatures) (popup Popup, ok bool)
	// AddMessageListener registers fn and returns a func that removes it.
	AddMessageListener(fn func(MessageEvent)) (remove func())
}

// Timer is a pending timeout.
type Timer interface {
	Stop() bool
}

// Clock schedules timeouts.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Handshake waits, on the opener side, for the result posted by the
// callback popup.
//
// Exactly one of the success or error callbacks fires, exactly once, per
// Start. There is no cancel: a popup closed by hand is not detected and the
// attempt ends at the timeout.
type Handshake struct {
	window  Window
	clock   Clock
	timeout time.Duration
	logger  *zap.Logger
}

// HandshakeOption customizes a Handshake.
type HandshakeOption func(*Handshake)

// WithClock replaces the wall clock.
func WithClock(c Clock) HandshakeOption {
	return func(h *Handshake) { h.clock = c }
}

// WithTimeout replaces DefaultTimeout.
func WithTimeout(d time.Duration) HandshakeOption {
	return func(h *Handshake) { h.timeout = d }
}

// NewHandshake creates a handshake bound to the opener window
func NewHandshake(w Window, logger *zap.Logger, opts ...HandshakeOption) *Handshake {
	h := &Handshake{
		window:  w,
		clock:   realClock{},
		timeout: DefaultTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start opens authURL in a centered popup and waits for its message.
// A blocked popup fails synchronously, before any listener or timer exists.
func (h *Handshake) Start(authURL string, onSuccess func(models.OAuthCompleteRequest), onError func(string)) {
	screenW, screenH := h.window.ScreenSize()
	popup, ok := h.window.Open(authURL, PopupFeatures{
		Width:  PopupWidth,
		Height: PopupHeight,
		Left:   max(0, (screenW-PopupWidth)/2),
		Top:    max(0, (screenH-PopupHeight)/2),
	})
	if !ok || popup == nil {
		onError(ErrTextPopupBlocked)
		return
	}

	a := &attempt{
		origin:    h.window.Origin(),
		popup:     popup,
		logger:    h.logger,
		onSuccess: onSuccess,
		onError:   onError,
	}

	// The window may dispatch from inside AddMessageListener, so neither
	// registration runs under a.mu. Whatever resolved in the meantime found
	// nothing to tear down; do it here instead.
	remove := h.window.AddMessageListener(a.onMessage)
	timer := h.clock.AfterFunc(h.timeout, a.onTimeout)

	a.mu.Lock()
	done := a.resolved
	if !done {
		a.removeListener, a.timer = remove, timer
	}
	a.mu.Unlock()

	if done {
		timer.Stop()
		remove()
	}
}

type attempt struct {
	mu             sync.Mutex
	resolved       bool
	origin         string
	popup          Popup
	timer          Timer
	removeListener func()
	logger         *zap.Logger
	onSuccess      func(models.OAuthCompleteRequest)
	onError        func(string)
}

func (a *attempt) onMessage(ev MessageEvent) {
	if ev.Origin != a.origin {
		return
	}

	switch ev.Data.Type {
	case MessageSuccess:
		if ev.Data.Data == nil {
			a.resolve(true, func() { a.onError(ErrTextFailed) })
			return
		}
		data := *ev.Data.Data
		a.resolve(true, func() { a.onSuccess(data) })
	case MessageError:
		text := ev.Data.Error
		if text == "" {
			text = ErrTextFailed
		}
		a.resolve(true, func() { a.onError(text) })
	}
}

// onTimeout leaves the popup open; the user may still be on the provider page.
func (a *attempt) onTimeout() {
	a.resolve(false, func() { a.onError(ErrTextTimeout) })
}

// resolve runs deliver if nothing has resolved the attempt yet
func (a *attempt) resolve(closePopup bool, deliver func()) {
	a.mu.Lock()
	if a.resolved {
		a.mu.Unlock()
		return
	}
	a.resolved = true
	timer, remove := a.timer, a.removeListener
	a.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if remove != nil {
		remove()
	}
	if closePopup {
		a.closePopup()
	}
	deliver()
}

func (a *attempt) closePopup() {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Debug("Popup close panicked", zap.Any("panic", r))
		}
	}()
	if err := a.popup.Close(); err != nil {
		a.logger.Debug("Popup close failed", zap.Error(err))
	}
}
