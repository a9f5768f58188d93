// Package openapi imports form schemas from OpenAPI 3 documents. Component
// schemas and operation request bodies are converted into schema.Field
// values with kin-openapi doing the parsing and $ref resolution.
package openapi
