// Package version parses and increments the vNNN token embedded in scene file names.
package version

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// tokenPrefix is the literal marker that opens a version token.
	tokenPrefix = 'v'
	// tokenDigits is the fixed number of digits in a version token.
	tokenDigits = 3
	// segmentSep separates name segments in a scene file stem.
	segmentSep = "_"
)

// Scope selects where the old version token is replaced in the full path.
type Scope string

const (
	// ScopeLiteral replaces the first textual occurrence of the token anywhere in the path.
	ScopeLiteral Scope = "literal"
	// ScopeFilename only considers and rewrites the token inside the base file name.
	ScopeFilename Scope = "filename"
)

// ParseScope converts a textual scope into a Scope, defaulting to ScopeLiteral.
func ParseScope(value string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(ScopeLiteral):
		return ScopeLiteral, nil
	case string(ScopeFilename):
		return ScopeFilename, nil
	default:
		return "", fmt.Errorf("unknown replace scope %q (expected literal or filename)", value)
	}
}

// NoVersionTokenError reports a path whose name carries no vNNN segment.
type NoVersionTokenError struct {
	// Path is the offending path without its extension.
	Path string
}

func (e *NoVersionTokenError) Error() string {
	if e == nil {
		return "no version found vXXX"
	}
	return "no version found vXXX: " + e.Path
}

// IsNoVersionToken reports whether err indicates a missing version token.
func IsNoVersionToken(err error) bool {
	var target *NoVersionTokenError
	return errors.As(err, &target)
}

// VersionedPath is a scene path split into the parts needed to derive its successor.
type VersionedPath struct {
	// FullPath is the path as received.
	FullPath string
	// Stem is FullPath without its extension.
	Stem string
	// Extension is the file suffix including the dot, or empty.
	Extension string
	// Segments is Stem split on underscores.
	Segments []string
	// Token is the version token, e.g. "v003".
	Token string
	// Number is the integer value of the token digits.
	Number int
	// segment is the index of the segment holding the token.
	segment int
	// scope records how the path was scanned.
	scope Scope
}

// Parse scans path for its version token using ScopeLiteral rules.
func Parse(path string) (VersionedPath, error) {
	return ParseScoped(path, ScopeLiteral)
}

// ParseScoped scans path for its version token. With ScopeFilename only the
// base name is split into segments; directories are never scanned.
func ParseScoped(path string, scope Scope) (VersionedPath, error) {
	stem, ext := SplitExt(path)
	vp := VersionedPath{
		FullPath:  path,
		Stem:      stem,
		Extension: ext,
		segment:   -1,
		scope:     scope,
	}

	scanned := stem
	if scope == ScopeFilename {
		scanned = filepath.Base(stem)
	}
	vp.Segments = strings.Split(scanned, segmentSep)

	for i, part := range vp.Segments {
		token, ok := tokenOf(part)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(token[1:])
		if err != nil {
			return VersionedPath{}, fmt.Errorf("parse version digits %q: %w", token, err)
		}
		vp.Token = token
		vp.Number = n
		vp.segment = i
		return vp, nil
	}

	return VersionedPath{}, &NoVersionTokenError{Path: stem}
}

// Next returns the path with the version token replaced by its successor.
func (vp VersionedPath) Next() (string, error) {
	if vp.Token == "" {
		return "", &NoVersionTokenError{Path: vp.Stem}
	}
	next := FormatToken(vp.Number + 1)

	if vp.scope != ScopeFilename {
		return strings.Replace(vp.FullPath, vp.Token, next, 1), nil
	}

	segments := make([]string, len(vp.Segments))
	copy(segments, vp.Segments)
	segments[vp.segment] = strings.Replace(segments[vp.segment], vp.Token, next, 1)

	dir := vp.Stem[:len(vp.Stem)-len(filepath.Base(vp.Stem))]
	return dir + strings.Join(segments, segmentSep) + vp.Extension, nil
}

// Asset identifies the versioned asset a scene path belongs to.
type Asset struct {
	// Prefix is the path up to the version token.
	Prefix string
	// Key is the stem with the version token removed; every version of an
	// asset shares it.
	Key string
}

// AssetOf returns the asset of path. Only the base name is scanned for the token.
func AssetOf(path string) (Asset, error) {
	vp, err := ParseScoped(path, ScopeFilename)
	if err != nil {
		return Asset{}, err
	}
	dir := vp.Stem[:len(vp.Stem)-len(filepath.Base(vp.Stem))]

	prefix := dir + strings.Join(vp.Segments[:vp.segment], segmentSep)
	if vp.segment > 0 {
		prefix += segmentSep
	}

	segments := make([]string, len(vp.Segments))
	copy(segments, vp.Segments)
	segments[vp.segment] = segments[vp.segment][len(vp.Token):]

	return Asset{Prefix: prefix, Key: dir + strings.Join(segments, segmentSep)}, nil
}

// Increment parses path and returns its successor in one step.
func Increment(path string, scope Scope) (string, error) {
	vp, err := ParseScoped(path, scope)
	if err != nil {
		return "", err
	}
	return vp.Next()
}

// FormatToken renders n as a version token with at least three zero-padded digits.
// Numbers from 1000 up keep all their digits.
func FormatToken(n int) string {
	return fmt.Sprintf("%c%0*d", tokenPrefix, tokenDigits, n)
}

// tokenOf returns the vNNN prefix of part when part starts with one.
func tokenOf(part string) (string, bool) {
	if len(part) < tokenDigits+1 || part[0] != tokenPrefix {
		return "", false
	}
	for i := 1; i <= tokenDigits; i++ {
		if part[i] < '0' || part[i] > '9' {
			return "", false
		}
	}
	return part[:tokenDigits+1], true
}

// SplitExt splits path into stem and extension. The extension starts at the
// last dot of the base name; leading dots of the base name never start one.
func SplitExt(path string) (string, string) {
	if path == "" || os.IsPathSeparator(path[len(path)-1]) {
		return path, ""
	}
	base := filepath.Base(path)
	if base == "." {
		return path, ""
	}
	trimmed := strings.TrimLeft(base, ".")
	dot := strings.LastIndex(trimmed, ".")
	if dot < 0 {
		return path, ""
	}
	extLen := len(trimmed) - dot
	return path[:len(path)-extLen], path[len(path)-extLen:]
}
