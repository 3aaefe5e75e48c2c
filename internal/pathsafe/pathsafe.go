// Package pathsafe validates identifiers and filesystem paths before any
// caller-controlled segment reaches the storage root.
package pathsafe

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrEmptySegment indicates an empty or whitespace-only path segment.
	ErrEmptySegment = errors.New("path segment is empty")
	// ErrNullByte indicates a path segment containing a NUL byte.
	ErrNullByte = errors.New("path segment contains null byte")
	// ErrEscapesBase indicates a resolved path outside the base directory.
	ErrEscapesBase = errors.New("path escapes base directory")
)

// sessionIDPattern bounds session identifiers to alphanumeric/hyphen, 64 max.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{0,63}$`)

// maxOwnerID bounds owner identifiers; anything above is treated as garbage
// input rather than a real principal.
const maxOwnerID = int64(1_000_000_000_000)

// SanitizeJoin resolves base/segment to an absolute path and returns it only
// if the result stays within base. The containment check is prefix-based with
// a separator boundary so a sibling directory sharing a string prefix (for
// example /srv/store vs /srv/storefoo) is rejected.
func SanitizeJoin(base, segment string) (string, error) {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "", ErrEmptySegment
	}
	if strings.ContainsRune(segment, '\x00') {
		return "", ErrNullByte
	}
	if strings.Contains(segment, "..") || filepath.IsAbs(segment) {
		return "", ErrEscapesBase
	}

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}

	joined := filepath.Join(absBase, segment)
	if joined == absBase {
		return "", ErrEscapesBase
	}
	if !strings.HasPrefix(joined, absBase+string(filepath.Separator)) {
		return "", ErrEscapesBase
	}
	return joined, nil
}

// ValidSessionID reports whether value is a well-formed session identifier.
func ValidSessionID(value string) bool {
	return MatchID(value, 64, sessionIDPattern)
}

// ValidOwnerID reports whether value is a positive, bounded owner identifier.
func ValidOwnerID(value int64) bool {
	return value > 0 && value <= maxOwnerID
}

// MatchID is a bounded-length allow-list check shared by identifier
// validators. It rejects NUL bytes before consulting the pattern.
func MatchID(value string, maxLen int, pattern *regexp.Regexp) bool {
	if value == "" || len(value) > maxLen {
		return false
	}
	if strings.ContainsRune(value, '\x00') {
		return false
	}
	return pattern.MatchString(value)
}
