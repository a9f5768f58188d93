package plugin

import (
	"github.com/google/uuid"
)

// ListenerID identifies a change listener.
type ListenerID string

type listener struct {
	id ListenerID
	fn func()
}

// AddChangeListener registers fn to be called after every state change:
// registration, removal, lifecycle transitions (including failures) and
// configuration. Listeners run synchronously, in the order they were added,
// outside the registry lock, so they may call back into the registry.
func (r *Registry) AddChangeListener(fn func()) ListenerID {
	id := ListenerID(uuid.NewString())
	if fn == nil {
		return id
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, listener{id: id, fn: fn})
	r.mu.Unlock()
	return id
}

// RemoveChangeListener unregisters a listener and reports whether it was
// present.
func (r *Registry) RemoveChangeListener(id ListenerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for idx, l := range r.listeners {
		if l.id == id {
			r.listeners = append(r.listeners[:idx:idx], r.listeners[idx+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry) notify() {
	r.mu.RLock()
	listeners := append([]listener(nil), r.listeners...)
	r.mu.RUnlock()

	for _, l := range listeners {
		r.invoke(l)
	}
}

func (r *Registry) invoke(l listener) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("plugin change listener panicked", "listener", string(l.id), "panic", rec)
		}
	}()
	l.fn()
}
