package plugin_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formkit/pkg/capability"
	"github.com/goliatone/go-formkit/pkg/plugin"
	"github.com/goliatone/go-formkit/pkg/schema"
)

type fakePlugin struct {
	meta        plugin.Metadata
	initErr     error
	cleanupErr  error
	initialized atomic.Int32
	cleaned     atomic.Int32
	block       chan struct{}
}

func newFake(id string) *fakePlugin {
	return &fakePlugin{meta: plugin.Metadata{ID: id, Name: id, Version: "1.0.0"}}
}

func (p *fakePlugin) Metadata() plugin.Metadata { return p.meta }

func (p *fakePlugin) Initialize(ctx context.Context) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.initialized.Add(1)
	return p.initErr
}

func (p *fakePlugin) Cleanup(context.Context) error {
	p.cleaned.Add(1)
	return p.cleanupErr
}

type fakeGenerator struct {
	*fakePlugin
}

func (fakeGenerator) Generators() []capability.Contribution { return nil }

type settings struct {
	Density string `json:"density" jsonschema:"enum=compact,enum=comfortable"`
	Columns int    `json:"columns,omitempty" jsonschema:"minimum=1"`
}

type configurablePlugin struct {
	*fakePlugin
	applied map[string]any
}

func (p *configurablePlugin) ConfigSchema() schema.Field {
	return schema.MustFromStruct(&settings{})
}

func (p *configurablePlugin) DefaultConfig() map[string]any {
	return map[string]any{"density": "comfortable", "columns": 2}
}

func (p *configurablePlugin) Configure(values map[string]any) error {
	p.applied = values
	return nil
}

func TestRegister_DuplicateID(t *testing.T) {
	reg := plugin.New()
	ctx := context.Background()

	require.NoError(t, reg.Register(ctx, newFake("dup")))
	err := reg.Register(ctx, newFake("dup"))

	require.Error(t, err)
	assert.ErrorIs(t, err, plugin.ErrDuplicateID)
	assert.Equal(t, plugin.CodeRegisterDuplicateID, plugin.CodeOf(err))
	assert.Len(t, reg.All(), 1)
}

func TestRegister_InvalidMetadataLeavesRegistryUntouched(t *testing.T) {
	reg := plugin.New()
	bad := newFake("bad")
	bad.meta.Version = "not-a-version"

	err := reg.Register(context.Background(), bad)

	assert.ErrorIs(t, err, plugin.ErrInvalidMetadata)
	assert.Empty(t, reg.All())
	assert.Zero(t, bad.initialized.Load())
}

func TestRegister_IncompatibleAppVersion(t *testing.T) {
	reg := plugin.New(plugin.WithAppVersion("1.0.0"))
	p := newFake("future")
	p.meta.MinAppVersion = "2.0.0"

	err := reg.Register(context.Background(), p)

	assert.ErrorIs(t, err, plugin.ErrIncompatible)
	assert.False(t, reg.Has("future"))
}

func TestRegister_ActivationFailureKeepsRegistration(t *testing.T) {
	reg := plugin.New()
	p := newFake("broken")
	p.initErr = errors.New("boom")

	err := reg.Register(context.Background(), p)

	require.Error(t, err)
	assert.ErrorIs(t, err, plugin.ErrActivation)
	assert.Equal(t, plugin.CodeLifecycleInitialize, plugin.CodeOf(err))

	got, getErr := reg.Get("broken")
	require.NoError(t, getErr)
	assert.Equal(t, plugin.StatusError, got.Status)
	assert.Equal(t, "boom", got.Error)

	p.initErr = nil
	require.NoError(t, reg.Activate(context.Background(), "broken"))
	got, _ = reg.Get("broken")
	assert.Equal(t, plugin.StatusActive, got.Status)
	assert.Empty(t, got.Error)
}

func TestUnregister_ActiveRunsCleanupAndLeavesIndex(t *testing.T) {
	reg := plugin.New()
	ctx := context.Background()
	gen := fakeGenerator{newFake("gen")}

	require.NoError(t, reg.Register(ctx, gen))
	require.Len(t, reg.ByCapability(capability.NameSchemaGenerator), 1)

	require.NoError(t, reg.Unregister(ctx, "gen"))

	assert.Equal(t, int32(1), gen.cleaned.Load())
	assert.Empty(t, reg.ByCapability(capability.NameSchemaGenerator))
	assert.False(t, reg.Supports("gen", capability.NameSchemaGenerator))
	assert.ErrorIs(t, reg.Unregister(ctx, "gen"), plugin.ErrNotFound)
}

func TestUnregister_CleanupFailureAbortsRemoval(t *testing.T) {
	reg := plugin.New()
	ctx := context.Background()
	p := newFake("sticky")
	p.cleanupErr = errors.New("cannot close")

	require.NoError(t, reg.Register(ctx, p))
	err := reg.Unregister(ctx, "sticky")

	assert.ErrorIs(t, err, plugin.ErrActivation)
	got, getErr := reg.Get("sticky")
	require.NoError(t, getErr)
	assert.Equal(t, plugin.StatusError, got.Status)

	require.NoError(t, reg.Unregister(ctx, "sticky"))
	assert.False(t, reg.Has("sticky"))
}

func TestByCapability_OnlyActive(t *testing.T) {
	reg := plugin.New()
	ctx := context.Background()

	registered := fakeGenerator{newFake("registered")}
	disabled := fakeGenerator{newFake("disabled")}
	failed := fakeGenerator{newFake("failed")}
	failed.initErr = errors.New("nope")
	active := fakeGenerator{newFake("active")}

	require.NoError(t, reg.Register(ctx, registered, plugin.WithoutActivation()))
	require.NoError(t, reg.Register(ctx, disabled))
	require.NoError(t, reg.Deactivate(ctx, "disabled"))
	require.Error(t, reg.Register(ctx, failed))
	require.NoError(t, reg.Register(ctx, active))

	for _, id := range []string{"registered", "disabled", "failed", "active"} {
		assert.True(t, reg.Supports(id, capability.NameSchemaGenerator), id)
	}

	got := reg.ByCapability(capability.NameSchemaGenerator)
	require.Len(t, got, 1)
	assert.Equal(t, "active", got[0].Metadata().ID)
	assert.Len(t, reg.Generators(), 1)
}

func TestLifecycle_NoOpsAndTimestamps(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	reg := plugin.New(plugin.WithClock(func() time.Time { return now }))
	ctx := context.Background()
	p := newFake("clock")

	require.NoError(t, reg.Register(ctx, p, plugin.WithoutActivation()))
	require.NoError(t, reg.Deactivate(ctx, "clock"))
	assert.Zero(t, p.cleaned.Load(), "deactivate of a registered plugin is a no-op")

	require.NoError(t, reg.Activate(ctx, "clock"))
	require.NoError(t, reg.Activate(ctx, "clock"))
	assert.Equal(t, int32(1), p.initialized.Load())

	require.NoError(t, reg.Deactivate(ctx, "clock"))
	require.NoError(t, reg.Activate(ctx, "clock"))

	got, err := reg.Get("clock")
	require.NoError(t, err)
	assert.Equal(t, plugin.StatusActive, got.Status)
	assert.Equal(t, now, got.ActivatedAt)
	assert.Equal(t, now, got.DeactivatedAt)
	assert.Equal(t, now, got.RegisteredAt)
	assert.ErrorIs(t, reg.Activate(ctx, "missing"), plugin.ErrNotFound)
}

func TestAll_RegistrationOrder(t *testing.T) {
	reg := plugin.New()
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, reg.Register(ctx, newFake(id), plugin.WithoutActivation()))
	}
	var ids []string
	for _, r := range reg.All() {
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestChangeListeners_IsolatePanics(t *testing.T) {
	reg := plugin.New()
	ctx := context.Background()

	var calls atomic.Int32
	reg.AddChangeListener(func() { panic("listener exploded") })
	id := reg.AddChangeListener(func() { calls.Add(1) })

	require.NoError(t, reg.Register(ctx, newFake("one"), plugin.WithoutActivation()))
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, reg.Activate(ctx, "one"))
	assert.Equal(t, int32(2), calls.Load())

	assert.True(t, reg.RemoveChangeListener(id))
	assert.False(t, reg.RemoveChangeListener(id))
	require.NoError(t, reg.Deactivate(ctx, "one"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestChangeListeners_NoNotificationOnDuplicate(t *testing.T) {
	reg := plugin.New()
	ctx := context.Background()
	require.NoError(t, reg.Register(ctx, newFake("one"), plugin.WithoutActivation()))

	var calls atomic.Int32
	reg.AddChangeListener(func() { calls.Add(1) })
	require.Error(t, reg.Register(ctx, newFake("one")))
	assert.Zero(t, calls.Load())
}

func TestChangeListeners_MayReenterRegistry(t *testing.T) {
	reg := plugin.New()
	ctx := context.Background()

	var seen atomic.Int32
	reg.AddChangeListener(func() {
		seen.Store(int32(len(reg.All())))
	})
	require.NoError(t, reg.Register(ctx, newFake("one")))
	assert.Equal(t, int32(1), seen.Load())
}

func TestRegister_ConcurrentDuplicatesSucceedOnce(t *testing.T) {
	reg := plugin.New()
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := reg.Register(ctx, newFake("race")); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Len(t, reg.All(), 1)
}

func TestActivate_SlowInitializeDoesNotBlockQueries(t *testing.T) {
	reg := plugin.New()
	ctx := context.Background()
	slow := newFake("slow")
	slow.block = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- reg.Register(ctx, slow) }()

	require.Eventually(t, func() bool { return reg.Has("slow") }, time.Second, 5*time.Millisecond)

	queried := make(chan struct{})
	go func() {
		_ = reg.All()
		_ = reg.ByCapability(capability.NamePlugin)
		_ = reg.Register(ctx, newFake("other"))
		close(queried)
	}()
	select {
	case <-queried:
	case <-time.After(time.Second):
		t.Fatal("registry queries blocked by a slow Initialize")
	}

	close(slow.block)
	require.NoError(t, <-done)
	got, err := reg.Get("slow")
	require.NoError(t, err)
	assert.Equal(t, plugin.StatusActive, got.Status)
}

func TestConfigure(t *testing.T) {
	reg := plugin.New()
	ctx := context.Background()
	p := &configurablePlugin{fakePlugin: newFake("cfg")}
	require.NoError(t, reg.Register(ctx, p))
	assert.True(t, reg.Supports("cfg", capability.NameConfigurable))
	assert.Len(t, reg.Configurables(), 1)

	var notified atomic.Int32
	reg.AddChangeListener(func() { notified.Add(1) })

	require.NoError(t, reg.Configure(ctx, "cfg", map[string]any{"density": "compact"}))
	assert.Equal(t, map[string]any{"density": "compact", "columns": 2}, p.applied)
	assert.Equal(t, int32(1), notified.Load())

	got, err := reg.Get("cfg")
	require.NoError(t, err)
	assert.Equal(t, "compact", got.Config["density"])

	err = reg.Configure(ctx, "cfg", map[string]any{"density": "huge"})
	require.Error(t, err)
	assert.ErrorIs(t, err, plugin.ErrInvalidConfig)
	var cfgErr *plugin.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"density: Must be one of: compact, comfortable"}, cfgErr.Errors)
	assert.Equal(t, int32(1), notified.Load())

	require.NoError(t, reg.Register(ctx, newFake("plain")))
	assert.ErrorIs(t, reg.Configure(ctx, "plain", nil), plugin.ErrNotConfigurable)
}

func TestDefault_IsShared(t *testing.T) {
	assert.Same(t, plugin.Default(), plugin.Default())
}
