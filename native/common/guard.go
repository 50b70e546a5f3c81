package common

import (
	"errors"
	"strings"
)

var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a native module is administratively paused.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard returns ErrModulePaused when the named module is paused. A nil view
// means pausing is not wired and the guard passes.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// PauseSet is a fixed PauseView built from configuration at startup.
type PauseSet map[string]struct{}

// NewPauseSet builds a pause set from module names. Names are trimmed and
// lower-cased; empty entries are dropped.
func NewPauseSet(modules []string) PauseSet {
	set := make(PauseSet, len(modules))
	for _, module := range modules {
		module = strings.ToLower(strings.TrimSpace(module))
		if module != "" {
			set[module] = struct{}{}
		}
	}
	return set
}

// IsPaused implements the PauseView interface.
func (p PauseSet) IsPaused(module string) bool {
	_, ok := p[module]
	return ok
}
