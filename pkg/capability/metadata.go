package capability

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Metadata describes a plugin. ID is the registry key and must be globally
// unique; the remaining fields are informational except the app version
// window, which the registry checks when it knows the host version.
type Metadata struct {
	ID            string   `json:"id" yaml:"id" validate:"required,max=128"`
	Name          string   `json:"name" yaml:"name" validate:"required"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
	Version       string   `json:"version" yaml:"version" validate:"required,semver"`
	Author        string   `json:"author,omitempty" yaml:"author,omitempty"`
	Tags          []string `json:"tags,omitempty" yaml:"tags,omitempty" validate:"unique,dive,required"`
	Homepage      string   `json:"homepage,omitempty" yaml:"homepage,omitempty" validate:"omitempty,url"`
	MinAppVersion string   `json:"minAppVersion,omitempty" yaml:"minAppVersion,omitempty" validate:"omitempty,semver"`
	MaxAppVersion string   `json:"maxAppVersion,omitempty" yaml:"maxAppVersion,omitempty" validate:"omitempty,semver"`
	Permissions   []string `json:"permissions,omitempty" yaml:"permissions,omitempty" validate:"unique"`
}

// HasTag reports whether the metadata carries tag.
func (m Metadata) HasTag(tag string) bool {
	for _, candidate := range m.Tags {
		if candidate == tag {
			return true
		}
	}
	return false
}

// Supports reports whether appVersion falls inside the MinAppVersion and
// MaxAppVersion window. Empty bounds are open; an empty or invalid
// appVersion is always supported.
func (m Metadata) Supports(appVersion string) bool {
	current := canonicalVersion(appVersion)
	if current == "" {
		return true
	}
	if min := canonicalVersion(m.MinAppVersion); min != "" && semver.Compare(current, min) < 0 {
		return false
	}
	if max := canonicalVersion(m.MaxAppVersion); max != "" && semver.Compare(current, max) > 0 {
		return false
	}
	return true
}

func canonicalVersion(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !strings.HasPrefix(trimmed, "v") {
		trimmed = "v" + trimmed
	}
	if !semver.IsValid(trimmed) {
		return ""
	}
	return trimmed
}
