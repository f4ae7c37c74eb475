package decode

// Decoder decodes a stream of chunks. With carry enabled it holds back an
// incomplete sequence at the end of a chunk and completes it with the start
// of the next one. With carry disabled every chunk is decoded on its own,
// exactly like Bytes.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	carry   bool
	pending []byte
}

// NewDecoder returns a Decoder. carry selects whether partial sequences
// survive chunk boundaries.
func NewDecoder(carry bool) *Decoder {
	return &Decoder{carry: carry}
}

// Write decodes chunk and returns the text that is complete so far.
func (d *Decoder) Write(chunk []byte) string {
	if !d.carry {
		return Bytes(chunk)
	}

	var prefix string
	buf := chunk
	if len(d.pending) > 0 {
		if continues(d.pending, chunk) {
			buf = append(d.pending, chunk...)
		} else {
			prefix = Bytes(d.pending)
		}
		d.pending = nil
	}

	cut := incompleteTail(buf)
	if cut < len(buf) {
		d.pending = append([]byte(nil), buf[cut:]...)
	}

	return prefix + Bytes(buf[:cut])
}

// Flush returns placeholders for any held back bytes and empties the
// decoder. Call it when the stream ends.
func (d *Decoder) Flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	s := Bytes(d.pending)
	d.pending = nil
	return s
}

// Reset drops held back bytes without emitting them.
func (d *Decoder) Reset() {
	d.pending = nil
}

// Pending reports the number of bytes held back for the next chunk.
func (d *Decoder) Pending() int {
	return len(d.pending)
}

// incompleteTail returns the index at which a trailing, not yet complete
// multi-byte sequence starts, or len(b) when the tail is complete.
func incompleteTail(b []byte) int {
	for k := 1; k <= 3 && k <= len(b); k++ {
		c := b[len(b)-k]
		if c&0xC0 == 0x80 {
			continue
		}
		if n := seqLen(c); n > k {
			return len(b) - k
		}
		return len(b)
	}
	return len(b)
}

// continues reports whether next supplies the continuation bytes the held
// back sequence is waiting for. A short next chunk is accepted when all the
// bytes it has look like continuations.
func continues(pending, next []byte) bool {
	need := seqLen(pending[0]) - len(pending)
	for i := 0; i < need && i < len(next); i++ {
		if next[i]&0xC0 != 0x80 {
			return false
		}
	}
	return true
}
