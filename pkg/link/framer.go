package link

import "unicode/utf8"

// DefaultLineCapacity is the default size of the line buffer in bytes.
const DefaultLineCapacity = 64

// Framer assembles bytes into lines.
// Bytes are decoded as UTF-8 first; malformed sequences are dropped.
// A line longer than the buffer is discarded up to the next newline and
// reported as ErrInputBufferOverflow once.
type Framer struct {
	char    [utf8.UTFMax]byte
	charLen int
	charMax int

	buf      []byte
	overflow bool
	clear    bool
}

// NewFramer creates a Framer with the line buffer capacity in bytes.
func NewFramer(capacity int) *Framer {
	if capacity <= 0 {
		capacity = DefaultLineCapacity
	}
	return &Framer{buf: make([]byte, 0, capacity)}
}

// HandleByte consumes one byte and returns a line when one completes.
func (f *Framer) HandleByte(b byte) (line string, ok bool, err error) {
	if f.clear {
		f.buf, f.clear = f.buf[:0], false
	}
	r, complete := f.decode(b)
	if !complete {
		return
	}
	if r == '\n' || r == '\r' {
		if f.overflow {
			f.overflow = false
			f.buf = f.buf[:0]
			return "", false, ErrInputBufferOverflow
		}
		f.clear = true
		return string(f.buf), true, nil
	}
	if f.overflow {
		return
	}
	if len(f.buf)+utf8.RuneLen(r) > cap(f.buf) {
		f.overflow = true
		return
	}
	f.buf = utf8.AppendRune(f.buf, r)
	return
}

// Reset drops partial characters and the current line.
func (f *Framer) Reset() {
	f.charLen, f.charMax = 0, 0
	f.buf = f.buf[:0]
	f.overflow, f.clear = false, false
}

func (f *Framer) decode(b byte) (rune, bool) {
	if f.charLen > 0 && !utf8.RuneStart(b) {
		f.char[f.charLen] = b
		f.charLen++
		if f.charLen < f.charMax {
			return 0, false
		}
		r, size := utf8.DecodeRune(f.char[:f.charLen])
		f.charLen = 0
		return r, size == f.charMax
	}
	// a new leading byte abandons any pending sequence.
	f.charLen = 0
	switch {
	case b < 0x80:
		return rune(b), true
	case b >= 0xc2 && b <= 0xdf:
		f.charMax = 2
	case b >= 0xe0 && b <= 0xef:
		f.charMax = 3
	case b >= 0xf0 && b <= 0xf4:
		f.charMax = 4
	default:
		return 0, false
	}
	f.char[0] = b
	f.charLen = 1
	return 0, false
}
