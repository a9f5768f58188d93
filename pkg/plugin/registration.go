package plugin

import (
	"time"

	"github.com/goliatone/go-formkit/pkg/capability"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// Re-exported so hosts can write plugins against this package alone.
type (
	Plugin     = capability.Plugin
	Metadata   = capability.Metadata
	Capability = capability.Name
)

// Status is the lifecycle state of a registration.
type Status string

const (
	StatusRegistered Status = "registered"
	StatusActive     Status = "active"
	StatusDisabled   Status = "disabled"
	StatusError      Status = "error"
)

var validTransitions = map[Status]map[Status]bool{
	StatusRegistered: {StatusActive: true, StatusError: true},
	StatusActive:     {StatusDisabled: true, StatusError: true},
	StatusDisabled:   {StatusActive: true, StatusError: true},
	StatusError:      {StatusActive: true, StatusError: true},
}

// ValidTransition reports whether a registration may move from one status to
// another.
func ValidTransition(from, to Status) bool {
	return validTransitions[from][to]
}

// Registration is a snapshot of the registry's bookkeeping for one plugin.
// Values returned by the registry are copies; mutating them has no effect.
type Registration struct {
	Plugin        Plugin
	Status        Status
	Error         string
	RegisteredAt  time.Time
	ActivatedAt   time.Time
	DeactivatedAt time.Time
	Capabilities  []Capability
	Config        map[string]any
}

// ID returns the plugin id.
func (r Registration) ID() string {
	if r.Plugin == nil {
		return ""
	}
	return r.Plugin.Metadata().ID
}

// Metadata returns the plugin metadata.
func (r Registration) Metadata() Metadata {
	if r.Plugin == nil {
		return Metadata{}
	}
	return r.Plugin.Metadata()
}

// Has reports whether the registration was indexed under name.
func (r Registration) Has(name Capability) bool {
	for _, c := range r.Capabilities {
		if c == name {
			return true
		}
	}
	return false
}

func (r Registration) clone() Registration {
	out := r
	out.Capabilities = append([]Capability(nil), r.Capabilities...)
	if r.Config != nil {
		out.Config, _ = schema.CloneValue(r.Config).(map[string]any)
	}
	return out
}
