// Package plugin manages plugin registrations: metadata validation, the
// activation lifecycle, the capability index, plugin configuration and
// change notification.
//
// A Registry is an ordinary value. Hosts normally build one at their
// composition root with New and pass it around; Default returns a shared
// process-wide instance for small programs.
//
// Lifecycle per registration:
//
//	registered --Initialize ok--> active --Cleanup ok--> disabled
//	registered/active/disabled --hook fails--> error
//	disabled/error --Activate--> active
//
// Nothing leaves the error state on its own; callers retry with Activate.
package plugin
