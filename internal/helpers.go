package internal

import (
	"fmt"
	"time"
)

func AssertNoError(err error, because string) {
	if err != nil {
		panic(fmt.Errorf("error unexpected because %s: %w", because, err))
	}
}

// Now is the clock of all catalog timestamps, replaceable in tests.
var Now = func() time.Time {
	return time.Now().UTC()
}
