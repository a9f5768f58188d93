package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"

	"github.com/goliatone/go-formkit/pkg/capability"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for lifecycle transitions and swallowed
// listener failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source used for registration timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithAppVersion sets the host version checked against each plugin's
// MinAppVersion/MaxAppVersion window.
func WithAppVersion(version string) Option {
	return func(r *Registry) {
		r.appVersion = version
	}
}

// RegisterOption tunes a single Register call.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	activate bool
}

// WithoutActivation registers the plugin without initializing it.
func WithoutActivation() RegisterOption {
	return func(cfg *registerConfig) {
		cfg.activate = false
	}
}

type entry struct {
	// op serializes lifecycle hooks for this plugin. It is never held
	// together with the registry lock while a hook runs.
	op  sync.Mutex
	reg Registration
}

// Registry owns plugin registrations, their lifecycle and the capability
// index. The zero value is not usable; construct with New.
type Registry struct {
	mu        sync.RWMutex
	entries   map[string]*entry
	order     []string
	index     map[Capability]map[string]struct{}
	listeners []listener

	logger     *slog.Logger
	now        func() time.Time
	appVersion string
	validate   *validator.Validate
}

// New constructs an empty registry.
func New(options ...Option) *Registry {
	r := &Registry{
		entries:  make(map[string]*entry),
		index:    make(map[Capability]map[string]struct{}),
		logger:   slog.Default(),
		now:      time.Now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry { return New() })

// Default returns the shared process-wide registry.
func Default() *Registry {
	return defaultRegistry()
}

// Register adds p to the registry and, unless WithoutActivation is passed,
// activates it. A duplicate id or invalid metadata leaves the registry
// untouched. An activation failure keeps the registration with StatusError
// and returns the activation error.
func (r *Registry) Register(ctx context.Context, p Plugin, options ...RegisterOption) error {
	cfg := registerConfig{activate: true}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	if p == nil {
		return oops.Code(CodeRegisterInvalidMetadata).Wrapf(ErrInvalidMetadata, "plugin is nil")
	}
	meta := p.Metadata()
	if err := r.validate.Struct(meta); err != nil {
		return oops.Code(CodeRegisterInvalidMetadata).
			With("plugin", meta.ID).
			Wrapf(fmt.Errorf("%w: %w", ErrInvalidMetadata, err), "register %q", meta.ID)
	}
	if r.appVersion != "" && !meta.Supports(r.appVersion) {
		return oops.Code(CodeRegisterIncompatible).
			With("plugin", meta.ID, "app_version", r.appVersion, "min", meta.MinAppVersion, "max", meta.MaxAppVersion).
			Wrapf(ErrIncompatible, "register %q", meta.ID)
	}

	id := meta.ID
	r.mu.Lock()
	if _, exists := r.entries[id]; exists {
		r.mu.Unlock()
		return oops.Code(CodeRegisterDuplicateID).With("plugin", id).Wrapf(ErrDuplicateID, "register %q", id)
	}
	e := &entry{reg: Registration{
		Plugin:       p,
		Status:       StatusRegistered,
		RegisteredAt: r.now(),
		Capabilities: capability.Declared(p),
	}}
	r.entries[id] = e
	r.order = append(r.order, id)
	for _, name := range e.reg.Capabilities {
		ids, ok := r.index[name]
		if !ok {
			ids = make(map[string]struct{})
			r.index[name] = ids
		}
		ids[id] = struct{}{}
	}
	r.mu.Unlock()

	r.logger.Debug("plugin registered", "plugin", id, "version", meta.Version)
	r.notify()

	if !cfg.activate {
		return nil
	}
	return r.Activate(ctx, id)
}

// MustRegister registers p and panics on failure.
func (r *Registry) MustRegister(ctx context.Context, p Plugin, options ...RegisterOption) {
	if err := r.Register(ctx, p, options...); err != nil {
		panic(err)
	}
}

// Unregister removes the plugin. An active plugin is cleaned up first; when
// cleanup fails the plugin stays registered with StatusError and the error is
// returned.
func (r *Registry) Unregister(ctx context.Context, id string) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.op.Lock()
	defer e.op.Unlock()

	status, ok := r.currentStatus(id, e)
	if !ok {
		return notFound(id)
	}
	if status == StatusActive {
		if err := r.runHook(ctx, e, id, StatusDisabled); err != nil {
			return err
		}
	}

	r.mu.Lock()
	if r.entries[id] != e {
		r.mu.Unlock()
		return notFound(id)
	}
	delete(r.entries, id)
	for idx, candidate := range r.order {
		if candidate == id {
			r.order = append(r.order[:idx:idx], r.order[idx+1:]...)
			break
		}
	}
	for name, ids := range r.index {
		delete(ids, id)
		if len(ids) == 0 {
			delete(r.index, name)
		}
	}
	r.mu.Unlock()

	r.logger.Debug("plugin unregistered", "plugin", id)
	r.notify()
	return nil
}

// Activate initializes the plugin. It is a no-op for active plugins and
// re-attempts initialization for plugins in StatusError.
func (r *Registry) Activate(ctx context.Context, id string) error {
	return r.transition(ctx, id, StatusActive)
}

// Deactivate cleans up an active plugin. It is a no-op for plugins that are
// not active.
func (r *Registry) Deactivate(ctx context.Context, id string) error {
	return r.transition(ctx, id, StatusDisabled)
}

func (r *Registry) transition(ctx context.Context, id string, target Status) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.op.Lock()
	defer e.op.Unlock()

	status, ok := r.currentStatus(id, e)
	if !ok {
		return notFound(id)
	}
	if status == target {
		return nil
	}
	if target == StatusDisabled && status != StatusActive {
		return nil
	}
	if err := r.runHook(ctx, e, id, target); err != nil {
		return err
	}
	r.notify()
	return nil
}

// runHook calls Initialize (target active) or Cleanup (target disabled)
// without holding the registry lock, then records the outcome. Callers hold
// e.op. Failures are notified here; successes are notified by the caller.
func (r *Registry) runHook(ctx context.Context, e *entry, id string, target Status) error {
	p := e.reg.Plugin
	phase, code, hook := "initialize", CodeLifecycleInitialize, p.Initialize
	if target == StatusDisabled {
		phase, code, hook = "cleanup", CodeLifecycleCleanup, p.Cleanup
	}

	hookErr := callHook(ctx, hook)

	r.mu.Lock()
	if r.entries[id] != e {
		r.mu.Unlock()
		return notFound(id)
	}
	from := e.reg.Status
	if hookErr != nil {
		e.reg.Status = StatusError
		e.reg.Error = hookErr.Error()
		r.mu.Unlock()

		r.logger.Warn("plugin lifecycle hook failed", "plugin", id, "phase", phase, "from", from, "error", hookErr)
		r.notify()
		return lifecycleError(code, id, phase, hookErr)
	}
	if !ValidTransition(from, target) {
		r.mu.Unlock()
		return oops.Code(code).With("plugin", id).Errorf("invalid transition %s -> %s", from, target)
	}
	e.reg.Status = target
	e.reg.Error = ""
	if target == StatusActive {
		e.reg.ActivatedAt = r.now()
	} else {
		e.reg.DeactivatedAt = r.now()
	}
	r.mu.Unlock()

	r.logger.Debug("plugin status changed", "plugin", id, "from", from, "status", target)
	return nil
}

func callHook(ctx context.Context, hook func(context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return hook(ctx)
}

// Configure merges values over the plugin's default configuration, validates
// the result against its configuration schema and applies it. Rejected values
// return a *ConfigError listing every validation error.
func (r *Registry) Configure(ctx context.Context, id string, values map[string]any) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	configurable, ok := e.reg.Plugin.(capability.Configurable)
	if !ok {
		return oops.Code(CodeConfigureUnsupported).With("plugin", id).Wrapf(ErrNotConfigurable, "configure %q", id)
	}

	e.op.Lock()
	defer e.op.Unlock()
	if _, ok := r.currentStatus(id, e); !ok {
		return notFound(id)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	merged := mergeConfig(configurable.DefaultConfig(), values)
	if errs := validation.Validate(merged, configurable.ConfigSchema()); len(errs) > 0 {
		return oops.Code(CodeConfigureInvalid).
			With("plugin", id, "errors", errs).
			Wrap(&ConfigError{ID: id, Errors: errs})
	}
	if err := configurable.Configure(schema.CloneValue(merged).(map[string]any)); err != nil {
		return oops.Code(CodeConfigureFailure).With("plugin", id).Wrapf(err, "configure %q", id)
	}

	r.mu.Lock()
	if r.entries[id] != e {
		r.mu.Unlock()
		return notFound(id)
	}
	e.reg.Config = merged
	r.mu.Unlock()

	r.logger.Debug("plugin configured", "plugin", id)
	r.notify()
	return nil
}

func mergeConfig(defaults, values map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(values))
	for key, value := range defaults {
		merged[key] = schema.CloneValue(value)
	}
	for key, value := range values {
		merged[key] = schema.CloneValue(value)
	}
	return merged
}

// Get returns a snapshot of the registration for id.
func (r *Registry) Get(id string) (Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return Registration{}, notFound(id)
	}
	return e.reg.clone(), nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[id]
	return ok
}

// All returns every registration, whatever its status, in registration order.
func (r *Registry) All() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Registration, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].reg.clone())
	}
	return out
}

// ByCapability returns the active plugins indexed under name, in
// registration order. Registered, disabled and failed plugins are excluded.
func (r *Registry) ByCapability(name Capability) []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.index[name]
	if len(ids) == 0 {
		return nil
	}
	var out []Plugin
	for _, id := range r.order {
		if _, ok := ids[id]; !ok {
			continue
		}
		if e := r.entries[id]; e.reg.Status == StatusActive {
			out = append(out, e.reg.Plugin)
		}
	}
	return out
}

// Generators returns the active schema generator plugins.
func (r *Registry) Generators() []capability.SchemaGenerator {
	return collect[capability.SchemaGenerator](r.ByCapability(capability.NameSchemaGenerator))
}

// Overrides returns the active schema override plugins.
func (r *Registry) Overrides() []capability.SchemaOverride {
	return collect[capability.SchemaOverride](r.ByCapability(capability.NameSchemaOverride))
}

// Configurables returns the active configurable plugins.
func (r *Registry) Configurables() []capability.Configurable {
	return collect[capability.Configurable](r.ByCapability(capability.NameConfigurable))
}

func collect[T any](plugins []Plugin) []T {
	out := make([]T, 0, len(plugins))
	for _, p := range plugins {
		if typed, ok := p.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

// Supports reports whether plugin id is indexed under name, whatever its
// status.
func (r *Registry) Supports(id string, name Capability) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[name][id]
	return ok
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, notFound(id)
	}
	return e, nil
}

// currentStatus re-reads the status after the caller acquired e.op, and
// reports false when e was removed in the meantime.
func (r *Registry) currentStatus(id string, e *entry) (Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.entries[id] != e {
		return "", false
	}
	return e.reg.Status, true
}
