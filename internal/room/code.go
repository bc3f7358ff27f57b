package room

import (
	"math/rand/v2"
	"strings"
)

// Alphabet holds the symbols room codes are drawn from. I, O, 0 and 1 are left
// out because they are easily confused when read aloud or off a screen.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the number of symbols in a room code.
const CodeLength = 4

// Code identifies a live room.
type Code string

// String returns the code as a plain string.
func (c Code) String() string {
	return string(c)
}

// CodeSource produces candidate room codes. The registry keeps drawing until a
// candidate does not collide with a live room.
type CodeSource func() Code

// RandomCode draws CodeLength symbols uniformly from Alphabet.
func RandomCode() Code {
	var b [CodeLength]byte
	for i := range b {
		b[i] = Alphabet[rand.IntN(len(Alphabet))]
	}
	return Code(b[:])
}

// NormalizeCode upper-cases and trims raw user input and reports whether the
// result is a well-formed room code.
func NormalizeCode(raw string) (Code, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != CodeLength {
		return "", false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(Alphabet, code[i]) < 0 {
			return "", false
		}
	}
	return Code(code), true
}
