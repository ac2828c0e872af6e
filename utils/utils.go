package utils

import (
	"strconv"
	"strings"
)

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}

// AppendNote appends a labelled line to existing free-text notes.
func AppendNote(existing, label, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	if existing == "" {
		return label + ": " + note
	}
	return existing + "\n" + label + ": " + note
}

// ParsePagination clamps page to >= 1 and size to [1, max].
func ParsePagination(pageStr, sizeStr string, defaultSize, max int) (page, size int) {
	page, _ = strconv.Atoi(pageStr)
	if page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size < 1 {
		size = defaultSize
	}
	if size > max {
		size = max
	}
	return page, size
}
