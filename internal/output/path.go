package output

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/n2code/dupcat/internal"
)

const dot string = "."
const dirSeparator = string(filepath.Separator)
const dotDirSeparator = dot + dirSeparator
const doubleDot = dot + dot
const doubleDotDirSeparator = doubleDot + dirSeparator

func isChildOf(child string, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	internal.AssertNoError(err, "paths should both be absolute")
	return !(rel == dot || rel == doubleDot || strings.HasPrefix(rel, doubleDotDirSeparator))
}

// PleasantPath turns an absolute path into something easily understandable from the working directory.
// Paths below the working directory are shown relative, with leading "./" to stress relativity (opt-out possible).
// Everything else is reflected unchanged.
func PleasantPath(absolute string, wd string, omitDotSlash bool) string {
	absolute = filepath.Clean(absolute)
	if !filepath.IsAbs(absolute) || !isChildOf(absolute, wd) {
		return absolute
	}
	relative, _ := filepath.Rel(wd, absolute) //error impossible because both are rooted
	if omitDotSlash {
		return relative
	}
	return dotDirSeparator + relative
}

// WorkingDirectory is the reference for PleasantPath, empty if it cannot be determined.
func WorkingDirectory() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}
