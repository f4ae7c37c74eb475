// Package decode turns the raw bytes delivered by the modem's serial line
// into text.
//
// The decoder follows the UTF-8 lead byte patterns only. A lead byte that
// matches no pattern, or that announces more bytes than the chunk holds,
// becomes a single Placeholder and decoding resumes at the next byte.
// Continuation bytes are masked, not validated.
package decode

import "strings"

// Placeholder replaces every byte that cannot start a sequence.
const Placeholder = '?'

// Bytes decodes a single chunk. It keeps no state between calls, so a
// multi-byte sequence split across two chunks decodes as placeholders.
func Bytes(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))

	for i := 0; i < len(b); {
		r, n := decodeRune(b[i:])
		if n == 0 {
			sb.WriteByte(Placeholder)
			i++
			continue
		}
		sb.WriteRune(r)
		i += n
	}

	return sb.String()
}

// seqLen returns the sequence length announced by lead byte c, or 0 when c
// cannot start a sequence.
func seqLen(c byte) int {
	switch {
	case c&0x80 == 0x00:
		return 1
	case c&0xE0 == 0xC0:
		return 2
	case c&0xF0 == 0xE0:
		return 3
	case c&0xF8 == 0xF0:
		return 4
	default:
		return 0
	}
}

func decodeRune(b []byte) (rune, int) {
	n := seqLen(b[0])
	if n == 0 || n > len(b) {
		return 0, 0
	}

	switch n {
	case 1:
		return rune(b[0]), 1
	case 2:
		return rune(b[0]&0x1F)<<6 | rune(b[1]&0x3F), 2
	case 3:
		return rune(b[0]&0x0F)<<12 | rune(b[1]&0x3F)<<6 | rune(b[2]&0x3F), 3
	default:
		return rune(b[0]&0x07)<<18 | rune(b[1]&0x3F)<<12 | rune(b[2]&0x3F)<<6 | rune(b[3]&0x3F), 4
	}
}
