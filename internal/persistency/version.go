package persistency

import (
	"fmt"
	"regexp"
	"strconv"
)

// Version is the major.minor tag of the structured catalog format.
type Version struct {
	Major int
	Minor int
}

// CurrentVersion is always emitted on write.
var CurrentVersion = Version{Major: 2, Minor: 0}

// oldestReadableMajor is the prior format whose missing fields are synthesized on read.
const oldestReadableMajor = 1

var versionRegex = regexp.MustCompile(`^(?P<major>0|[1-9]\d*)\.(?P<minor>0|[1-9]\d*)$`)

func ParseVersion(text string) (Version, error) {
	match := versionRegex.FindStringSubmatch(text)
	if match == nil {
		return Version{}, fmt.Errorf("malformed format version %q", text)
	}
	major, _ := strconv.Atoi(match[versionRegex.SubexpIndex("major")])
	minor, _ := strconv.Atoi(match[versionRegex.SubexpIndex("minor")])
	return Version{Major: major, Minor: minor}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Readable reports whether documents of this version can be loaded.
// Unknown majors, older or newer, are never coerced.
func (v Version) Readable() bool {
	return v.Major >= oldestReadableMajor && v.Major <= CurrentVersion.Major
}

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
