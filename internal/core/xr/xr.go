// Package xr models the XR capability boundary: what the viewer's device
// reports it can do and which session entry actions that enables. Nothing
// here feeds the geometry.
package xr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrModeUnsupported = errors.New("session mode not supported by device")
	ErrUnknownMode     = errors.New("unknown session mode")
)

// Mode is a viewing mode.
type Mode string

const (
	Desktop Mode = "desktop"
	VR      Mode = "vr"
	AR      Mode = "ar"
)

// ParseMode accepts desktop, vr or ar (also immersive-vr / immersive-ar).
func ParseMode(s string) (Mode, error) {
	switch m := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "immersive-"); Mode(m) {
	case Desktop, VR, AR:
		return Mode(m), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Capabilities is the answer of the device capability query, asked once per
// viewer at startup. The zero value means nothing immersive is available.
type Capabilities struct {
	VR bool `json:"vr"`
	AR bool `json:"ar"`
}

// Supports reports whether mode can be entered.
func (c Capabilities) Supports(mode Mode) bool {
	switch mode {
	case Desktop:
		return true
	case VR:
		return c.VR
	case AR:
		return c.AR
	}
	return false
}

// Actions are the entry buttons a viewer should enable.
type Actions struct {
	EnterVR bool `json:"enterVR"`
	EnterAR bool `json:"enterAR"`
}

// ActionsFor returns the entry actions enabled by c.
func ActionsFor(c Capabilities) Actions {
	return Actions{EnterVR: c.VR, EnterAR: c.AR}
}

// Check returns an error when mode cannot be entered with c.
func Check(c Capabilities, mode Mode) error {
	if !c.Supports(mode) {
		return fmt.Errorf("%w: %s", ErrModeUnsupported, mode)
	}
	return nil
}
