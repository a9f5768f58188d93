// Package capability defines the contracts a plugin may implement. Every
// plugin implements Plugin; the optional capabilities (Configurable,
// SchemaGenerator, SchemaOverride) are plain Go interfaces, so membership
// is an interface assertion made when the plugin is registered.
//
// The package also holds the generation vocabulary shared by plugins and the
// form orchestrator: Contribution, Context and the opaque Node.
package capability
