package catalog

import (
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/cases"

	"github.com/n2code/dupcat/internal/content"
)

// SemanticPath is slash-separated regardless of OS and relative to the catalog base directory.
type SemanticPath string

// PathKey is the case-folded form of a SemanticPath used for identity comparisons.
type PathKey string

// NormalizePath converts native or foreign separators to slashes and removes redundant elements.
func NormalizePath(relativePath string) SemanticPath {
	p := strings.ReplaceAll(relativePath, `\`, "/")
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return SemanticPath(p)
}

// KeyOf returns the case-insensitive identity of a path.
func KeyOf(relativePath string) PathKey {
	return PathKey(cases.Fold().String(string(NormalizePath(relativePath))))
}

// Record is one cataloged file instance. It is immutable once created.
type Record struct {
	path SemanticPath
	key  PathKey
	size int64
	hash content.Hash
}

func NewRecord(relativePath string, size int64, hash content.Hash) Record {
	p := NormalizePath(relativePath)
	return Record{
		path: p,
		key:  PathKey(cases.Fold().String(string(p))),
		size: size,
		hash: hash,
	}
}

func (r Record) Path() SemanticPath {
	return r.path
}

func (r Record) Key() PathKey {
	return r.key
}

// Size is an auxiliary sanity field, never part of identity.
func (r Record) Size() int64 {
	return r.size
}

func (r Record) Hash() content.Hash {
	return r.hash
}

// SameContent reports whether both records describe duplicates of each other.
func (r Record) SameContent(other Record) bool {
	return r.hash == other.hash
}

func (r Record) String() string {
	return fmt.Sprintf("%s  %s  %d", r.hash, r.path, r.size)
}
