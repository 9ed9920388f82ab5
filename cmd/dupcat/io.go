package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/n2code/dupcat/internal/dedup"
)

const confirmationWord = "yes"

// TypedConfirmation asks on out and accepts only the full word typed on in.
// Anything else, including end of input, declines.
func TypedConfirmation(in io.Reader, out io.Writer) dedup.Confirmation {
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s Type %q to confirm: ", prompt, confirmationWord)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprint(out, "<CANCELLED>\n")
			return false
		}
		return strings.TrimSpace(line) == confirmationWord
	}
}

// PreConfirmed is used when the user confirmed on the command line already.
func PreConfirmed(out io.Writer) dedup.Confirmation {
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s => [YES]\n", prompt)
		return true
	}
}
