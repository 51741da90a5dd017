// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package docstore

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned for malformed document or collection paths.
var ErrInvalidPath = errors.New("docstore: invalid path")

// Path addresses a document or a collection. Segments alternate between
// collection and document ids, so a document path has an even number of
// segments and a collection path an odd number.
type Path struct {
	segments []string
}

// New builds a path from segments. Segments must be non-empty and must not
// contain "/".
func New(segments ...string) (Path, error) {
	if len(segments) == 0 {
		return Path{}, fmt.Errorf("%w: no segments", ErrInvalidPath)
	}
	for _, s := range segments {
		if s == "" || strings.Contains(s, "/") || s == "." || s == ".." {
			return Path{}, fmt.Errorf("%w: bad segment %q", ErrInvalidPath, s)
		}
	}
	return Path{segments: append([]string(nil), segments...)}, nil
}

// MustNew is like New but panics on error. Use it for static paths.
func MustNew(segments ...string) Path {
	p, err := New(segments...)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse builds a path from its slash-separated form.
func Parse(s string) (Path, error) {
	return New(strings.Split(strings.Trim(s, "/"), "/")...)
}

// IsZero reports whether p is the zero Path.
func (p Path) IsZero() bool { return len(p.segments) == 0 }

// IsDocument reports whether p addresses a document.
func (p Path) IsDocument() bool { return len(p.segments) > 0 && len(p.segments)%2 == 0 }

// IsCollection reports whether p addresses a collection.
func (p Path) IsCollection() bool { return len(p.segments)%2 == 1 }

// ID returns the last segment.
func (p Path) ID() string {
	if p.IsZero() {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Parent returns the enclosing collection of a document, or the enclosing
// document of a collection. The parent of a single segment is the zero Path.
func (p Path) Parent() Path {
	if len(p.segments) <= 1 {
		return Path{}
	}
	return Path{segments: p.segments[:len(p.segments)-1:len(p.segments)-1]}
}

// Child appends id to p.
func (p Path) Child(id string) (Path, error) {
	return New(append(append([]string(nil), p.segments...), id)...)
}

func (p Path) String() string { return strings.Join(p.segments, "/") }
