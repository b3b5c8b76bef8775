package imu

// DefaultWindow is 3 s at 50 Hz.
const DefaultWindow = 150

// Buffer is a fixed-capacity ring of samples. The oldest slot is overwritten
// on every Push once the ring has wrapped.
type Buffer struct {
	slots []Sample
	next  int
	full  bool
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultWindow
	}
	return &Buffer{slots: make([]Sample, capacity)}
}

func (b *Buffer) Cap() int { return len(b.slots) }

// Len reports how many slots hold samples.
func (b *Buffer) Len() int {
	if b.full {
		return len(b.slots)
	}
	return b.next
}

func (b *Buffer) Push(s Sample) {
	b.slots[b.next] = s
	b.next++
	if b.next == len(b.slots) {
		b.next = 0
		b.full = true
	}
}

// IsFull is true once the ring has been filled end to end at least once.
func (b *Buffer) IsFull() bool { return b.full }

// Latest returns the most recent sample, if any.
func (b *Buffer) Latest() (Sample, bool) {
	if b.Len() == 0 {
		return Sample{}, false
	}
	i := b.next - 1
	if i < 0 {
		i = len(b.slots) - 1
	}
	return b.slots[i], true
}

// Snapshot copies the stored samples into dst ordered oldest to newest and
// returns the filled slice. dst is reused when it has enough capacity.
func (b *Buffer) Snapshot(dst []Sample) []Sample {
	n := b.Len()
	if cap(dst) < n {
		dst = make([]Sample, n)
	}
	dst = dst[:n]
	if !b.full {
		copy(dst, b.slots[:b.next])
		return dst
	}
	k := copy(dst, b.slots[b.next:])
	copy(dst[k:], b.slots[:b.next])
	return dst
}

// Reset drops all samples.
func (b *Buffer) Reset() {
	b.next = 0
	b.full = false
}
