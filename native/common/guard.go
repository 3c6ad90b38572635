package common

import (
	"errors"
	"strings"
)

var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a module currently rejects mutations.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard returns ErrModulePaused when module is paused in p.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// Pauses is a fixed set of paused module names, typically loaded from node
// configuration.
type Pauses map[string]bool

// NewPauses marks every listed module as paused.
func NewPauses(modules ...string) Pauses {
	p := make(Pauses, len(modules))
	for _, module := range modules {
		if trimmed := strings.ToLower(strings.TrimSpace(module)); trimmed != "" {
			p[trimmed] = true
		}
	}
	return p
}

func (p Pauses) IsPaused(module string) bool {
	return p[strings.ToLower(module)]
}
