//go:build !linux

package button

import (
	"errors"
	"io"
	"time"
)

func openLine(chip string, offset int, onPress func(ts time.Duration)) (io.Closer, error) {
	return nil, errors.New("gpio unsupported on this platform")
}
