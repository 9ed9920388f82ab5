// Package locations tracks every physical location of a content across scans and volumes.
package locations

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Location is one physical copy of a content.
// Equality is by case-insensitive full path and exact volume name.
type Location struct {
	FullPath string
	Volume   string
	ReadOnly bool //copy lives on media whose contents cannot change
}

func foldPath(p string) string {
	return cases.Fold().String(strings.ReplaceAll(p, `\`, "/"))
}

func (l Location) Equal(other Location) bool {
	return l.Volume == other.Volume && foldPath(l.FullPath) == foldPath(other.FullPath)
}

// Less orders by volume name first, then by case-insensitive path.
func (l Location) Less(other Location) bool {
	if l.Volume != other.Volume {
		return l.Volume < other.Volume
	}
	return foldPath(l.FullPath) < foldPath(other.FullPath)
}

func (l Location) String() string {
	marker := ""
	if l.ReadOnly {
		marker = " [read-only]"
	}
	if l.Volume == "" {
		return l.FullPath + marker
	}
	return fmt.Sprintf("%s:%s%s", l.Volume, l.FullPath, marker)
}

// LocationSet is kept sorted and free of equal entries.
type LocationSet []Location

// Has reports whether an equal location is present.
func (s LocationSet) Has(l Location) bool {
	i := s.search(l)
	return i < len(s) && s[i].Equal(l)
}

func (s LocationSet) search(l Location) int {
	return sort.Search(len(s), func(i int) bool { return !s[i].Less(l) })
}

// with returns the set including l and whether l was new. Re-adding an equal location is a no-op.
func (s LocationSet) with(l Location) (LocationSet, bool) {
	i := s.search(l)
	if i < len(s) && s[i].Equal(l) {
		return s, false
	}
	s = append(s, Location{})
	copy(s[i+1:], s[i:])
	s[i] = l
	return s, true
}

func (s LocationSet) AnyReadOnly() bool {
	for _, l := range s {
		if l.ReadOnly {
			return true
		}
	}
	return false
}

// Volumes lists the distinct volume names in order.
func (s LocationSet) Volumes() []string {
	var volumes []string
	for _, l := range s {
		if len(volumes) == 0 || volumes[len(volumes)-1] != l.Volume {
			volumes = append(volumes, l.Volume)
		}
	}
	return volumes
}
