package docstore

import (
	"strings"
)

// Join builds a path from segments, e.g. Join("houses", id, "chores").
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// ValidID reports whether id can be used as a single path segment.
func ValidID(id string) bool {
	return strings.TrimSpace(id) != "" && !strings.Contains(id, "/")
}

func segments(path string) ([]string, bool) {
	if path == "" {
		return nil, false
	}
	parts := strings.Split(path, "/")
	for _, p := range parts {
		if !ValidID(p) {
			return nil, false
		}
	}
	return parts, true
}

// SplitDoc splits a document path into its collection path and id.
func SplitDoc(docPath string) (colPath, id string, err error) {
	parts, ok := segments(docPath)
	if !ok || len(parts)%2 != 0 {
		return "", "", ErrInvalidPath
	}
	n := len(parts)
	return strings.Join(parts[:n-1], "/"), parts[n-1], nil
}

// CheckCollection validates a collection path.
func CheckCollection(colPath string) error {
	parts, ok := segments(colPath)
	if !ok || len(parts)%2 != 1 {
		return ErrInvalidPath
	}
	return nil
}

// ParentDoc returns the document that owns a collection ("" for top-level).
func ParentDoc(colPath string) (string, error) {
	if err := CheckCollection(colPath); err != nil {
		return "", err
	}
	i := strings.LastIndex(colPath, "/")
	if i < 0 {
		return "", nil
	}
	return colPath[:i], nil
}

// CollectionID returns the last segment of a collection path.
func CollectionID(colPath string) string {
	i := strings.LastIndex(colPath, "/")
	return colPath[i+1:]
}
