package input

import (
	"fmt"
	"sort"
	"strings"
)

// Action is what a Command asks the session to do
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionResetView
	ActionResetScale
	ActionSaveCurrent
	ActionSaveFresh
	ActionDragStart
	ActionDragEnd
	ActionMotion
	ActionZoom
)

var actionNames = map[Action]string{
	ActionNone:        "none",
	ActionQuit:        "quit",
	ActionResetView:   "reset-view",
	ActionResetScale:  "reset-scale",
	ActionSaveCurrent: "save-current",
	ActionSaveFresh:   "save-fresh",
	ActionDragStart:   "drag-start",
	ActionDragEnd:     "drag-end",
	ActionMotion:      "motion",
	ActionZoom:        "zoom",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// bindable lists the actions a key can trigger
var bindable = []Action{
	ActionQuit,
	ActionResetView,
	ActionResetScale,
	ActionSaveCurrent,
	ActionSaveFresh,
}

// ParseAction resolves a bindable action name
func ParseAction(name string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, a := range bindable {
		if actionNames[a] == name {
			return a, nil
		}
	}
	return ActionNone, fmt.Errorf("unknown action %q (valid: %s)", name, strings.Join(BindableActions(), ", "))
}

// BindableActions returns the names usable as binding keys
func BindableActions() []string {
	names := make([]string, len(bindable))
	for i, a := range bindable {
		names[i] = actionNames[a]
	}
	return names
}

// KeyNames returns every logical key name the window layer can report
func KeyNames() []string {
	names := make([]string, 0, len(keyNames))
	for k := range keyNames {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

var keyNames = func() map[string]bool {
	m := map[string]bool{
		"escape": true, "space": true, "enter": true, "tab": true,
		"backspace": true, "delete": true, "home": true, "end": true,
		"up": true, "down": true, "left": true, "right": true,
		"minus": true, "equal": true, "pageup": true, "pagedown": true,
	}
	for c := 'a'; c <= 'z'; c++ {
		m[string(c)] = true
	}
	for c := '0'; c <= '9'; c++ {
		m[string(c)] = true
	}
	for i := 1; i <= 12; i++ {
		m[fmt.Sprintf("f%d", i)] = true
	}
	return m
}()

// ValidKey reports whether name is a known logical key
func ValidKey(name string) bool {
	return keyNames[strings.ToLower(name)]
}

// Bindings maps logical key names to actions
type Bindings map[string]Action

// DefaultBindings returns the stock key map
func DefaultBindings() Bindings {
	return Bindings{
		"escape": ActionQuit,
		"q":      ActionQuit,
		"r":      ActionResetView,
		"c":      ActionResetScale,
		"s":      ActionSaveCurrent,
		"e":      ActionSaveFresh,
	}
}

// DefaultBindingConfig returns the defaults in config form (action -> keys)
func DefaultBindingConfig() map[string][]string {
	return DefaultBindings().Config()
}

// ParseBindings builds Bindings from config form. Actions present in
// overrides replace their default keys; absent actions keep the defaults.
// An empty key list unbinds the action.
func ParseBindings(overrides map[string][]string) (Bindings, error) {
	byAction := DefaultBindings().Config()
	for name, keys := range overrides {
		a, err := ParseAction(name)
		if err != nil {
			return nil, err
		}
		byAction[actionNames[a]] = keys
	}

	b := Bindings{}
	for name, keys := range byAction {
		a, _ := ParseAction(name)
		for _, k := range keys {
			k = strings.ToLower(strings.TrimSpace(k))
			if !ValidKey(k) {
				return nil, fmt.Errorf("unknown key %q for action %s", k, name)
			}
			if prev, ok := b[k]; ok && prev != a {
				return nil, fmt.Errorf("key %q bound to both %s and %s", k, prev, a)
			}
			b[k] = a
		}
	}
	return b, nil
}

// Config returns the bindings grouped by action name with sorted keys
func (b Bindings) Config() map[string][]string {
	out := make(map[string][]string, len(bindable))
	for _, a := range bindable {
		out[actionNames[a]] = []string{}
	}
	for k, a := range b {
		name := actionNames[a]
		out[name] = append(out[name], k)
	}
	for name := range out {
		sort.Strings(out[name])
	}
	return out
}

// Lookup returns the action bound to key, or ActionNone
func (b Bindings) Lookup(key string) Action {
	if a, ok := b[strings.ToLower(key)]; ok {
		return a
	}
	return ActionNone
}
