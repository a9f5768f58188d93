// Package validation checks values against schema fields and reports every
// problem as a path-prefixed message such as "owner: email: Invalid email
// address". Errors are data: a flat []string rather than a structured type.
package validation
