package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// nodeNameRegex matches valid scene node names: a letter or underscore
// followed by letters, digits and underscores, with optional namespace
// segments separated by colons.
var nodeNameRegex = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*:)*[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateNodeName validates a scene node name.
//
// The rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 256 characters
//   - Identifier characters only, optional colon-separated namespaces
func ValidateNodeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "node name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidName, "node name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "node name contains control characters")
		}
	}

	if !nodeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid node name: %q", name)
	}

	return nil
}

// attributeNameRegex matches valid attribute names: identifiers only, no
// path separators. Array indices and compound children are addressed via
// paths, never embedded in the attribute name itself.
var attributeNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateAttributeName validates a single attribute name.
func ValidateAttributeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "attribute name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidName, "attribute name too long (max 256 characters)")
	}

	if !attributeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid attribute name: %q", name)
	}

	return nil
}

// ValidateManifestPath validates a type-manifest search path entry for
// safety before the registry touches the filesystem.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidateManifestPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "manifest path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "manifest path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "manifest path contains invalid characters")
		}
	}

	return nil
}

// ValidateTypeName validates a metadata type name as registered in the type
// registry and stored in the type-tag attribute.
func ValidateTypeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "type name cannot be empty")
	}

	if strings.ContainsAny(name, " \t\n") {
		return New(ErrCodeInvalidName, "type name cannot contain whitespace: %q", name)
	}

	if !attributeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid type name: %q", name)
	}

	return nil
}
