package message

import (
	"strings"
	"unicode/utf8"
)

// Builder - implements io.Writer interface to build text frames from raw byte chunks.
// Invalid UTF-8 sequences are dropped. A rune split between two chunks
// is kept in reminder until the next Write completes it.
type Builder struct {
	reminder []byte
	str      strings.Builder
}

func (b *Builder) Write(p []byte) (n int, err error) {
	data := append(b.reminder, p...)
	tail := IncompleteTail(data)
	b.reminder = append([]byte(nil), data[len(data)-tail:]...)
	data = data[:len(data)-tail]

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		if r == utf8.RuneError && size <= 1 {
			// drop
			continue
		}
		b.str.WriteRune(r)
	}
	return len(p), nil
}

// Len - returns length (in bytes) of ready string.
func (b *Builder) Len() int {
	return b.str.Len()
}

// Total - return total size in bytes of underlying data.
// Total value may be grater than length of ready string.
func (b *Builder) Total() int {
	return b.Len() + len(b.reminder)
}

// Flush - returns built string and resets internal builder.
// Incomplete rune bytes stay buffered.
func (b *Builder) Flush() string {
	defer b.str.Reset()
	return b.str.String()
}

// Decode - converts single chunk into trimmed text, ignoring invalid bytes.
func Decode(p []byte) string {
	b := Builder{}
	b.Write(p)
	return strings.TrimSpace(b.Flush())
}

// IncompleteTail - returns number of bytes at the end of s
// which start a well-formed rune but do not complete it yet.
func IncompleteTail(s []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(s); i++ {
		c := s[len(s)-i]
		if utf8.RuneStart(c) {
			if c >= utf8.RuneSelf && !utf8.FullRune(s[len(s)-i:]) {
				return i
			}
			return 0
		}
	}
	return 0
}
