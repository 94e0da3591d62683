// Package hooks provides a registry of named extension points.
//
// Receivers are registered for a hook name with a priority. Calling a hook runs
// every receiver ordered by priority (lowest first) and then by registration
// order, and collects the non-empty values they return.
package hooks

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
)

// DefaultPriority is used when a receiver is registered without Priority.
const DefaultPriority = 50

// Func receives the hook arguments and returns a value to contribute.
// An empty string contributes nothing.
type Func func(ctx context.Context, args map[string]any) (string, error)

type receiver struct {
	fn       Func
	priority int
	markup   bool
	plugin   string
	seq      int
}

// Option configures a receiver.
type Option func(*receiver)

// Priority sets the ordering key. Lower values run first.
func Priority(p int) Option {
	return func(r *receiver) { r.priority = p }
}

// Markup marks the returned value as pre-styled. Values that are not markup have
// terminal escape sequences stripped before being collected.
func Markup(markup bool) Option {
	return func(r *receiver) { r.markup = markup }
}

// Plugin records the owner of a receiver so it can be removed with UnregisterPlugin.
func Plugin(name string) Option {
	return func(r *receiver) { r.plugin = name }
}

// Registry maps hook names to receivers. The zero value is not usable; use New.
type Registry struct {
	mu        sync.RWMutex
	receivers map[string][]receiver
	seq       int
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{receivers: make(map[string][]receiver)}
}

// Register adds fn as a receiver of the named hook.
func (r *Registry) Register(name string, fn Func, opts ...Option) {
	rc := receiver{fn: fn, priority: DefaultPriority, markup: true}
	for _, opt := range opts {
		opt(&rc)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	rc.seq = r.seq
	r.receivers[name] = append(r.receivers[name], rc)
}

// UnregisterPlugin removes every receiver registered by plugin.
func (r *Registry) UnregisterPlugin(plugin string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, list := range r.receivers {
		r.receivers[name] = slices.DeleteFunc(list, func(rc receiver) bool {
			return rc.plugin == plugin
		})
	}
}

// Len returns the number of receivers registered for name.
func (r *Registry) Len(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.receivers[name])
}

// Call runs the receivers of name and returns their non-empty values in order.
// The first receiver error stops the call.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) ([]string, error) {
	r.mu.RLock()
	list := slices.Clone(r.receivers[name])
	r.mu.RUnlock()

	slices.SortFunc(list, func(a, b receiver) int {
		if a.priority != b.priority {
			return a.priority - b.priority
		}
		return a.seq - b.seq
	})

	var values []string
	for _, rc := range list {
		v, err := rc.fn(ctx, args)
		if err != nil {
			if rc.plugin != "" {
				return values, fmt.Errorf("hook %s (%s): %w", name, rc.plugin, err)
			}
			return values, fmt.Errorf("hook %s: %w", name, err)
		}
		if v == "" {
			continue
		}
		if !rc.markup {
			v = ansi.Strip(v)
		}
		values = append(values, v)
	}
	return values, nil
}

// Join calls the hook and joins its values with newlines.
func (r *Registry) Join(ctx context.Context, name string, args map[string]any) (string, error) {
	values, err := r.Call(ctx, name, args)
	if err != nil {
		return "", err
	}
	return strings.Join(values, "\n"), nil
}
