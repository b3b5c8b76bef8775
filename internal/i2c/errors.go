// Package i2c is a small Linux i2c-dev client for register-mapped sensors.
package i2c

import "errors"

var ErrClosed = errors.New("i2c: bus closed")
