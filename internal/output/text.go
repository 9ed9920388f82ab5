package output

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dustin/go-humanize"
)

func Indent(spaces int, multilineText string) string {
	indent := strings.Repeat(" ", spaces)
	lines := strings.Split(multilineText, "\n")
	var indented strings.Builder
	for i, line := range lines {
		indented.WriteString(indent)
		indented.WriteString(line)
		if len(lines) > 1 && i < len(lines)-1 {
			indented.WriteRune('\n') //unless last line or only line
		}
	}
	return indented.String()
}

// Plural picks the word form for a count or for the length of a slice or map.
func Plural(countable interface{}, singular string, plural string) string {
	switch c := countable.(type) {
	case int:
		if c != 1 {
			return plural
		}
	case int64:
		if c != 1 {
			return plural
		}
	default:
		if reflect.ValueOf(c).Len() != 1 {
			return plural
		}
	}
	return singular
}

// Count renders "1 file" or "3 files".
func Count(n int, singular string, plural string) string {
	return fmt.Sprintf("%d %s", n, Plural(n, singular, plural))
}

func Filesize(i int64) string {
	if i < 1024 {
		return fmt.Sprintf("%d bytes", i)
	}
	return fmt.Sprintf("%s (%s bytes)", humanize.IBytes(uint64(i)), humanize.Comma(i))
}
