//go:build linux

package button

import (
	"io"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

func openLine(chip string, offset int, onPress func(ts time.Duration)) (io.Closer, error) {
	return gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithConsumer("luma-button"),
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			if evt.Type == gpiocdev.LineEventFallingEdge {
				onPress(evt.Timestamp)
			}
		}),
	)
}
