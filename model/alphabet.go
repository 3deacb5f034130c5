package model

import "sync"

// byteAlphabet is the GPT-2 byte-level mapping: a fixed bijection between
// the 256 raw byte values and 256 printable Unicode code points, so that any
// byte string can be round-tripped through a printable string a BPE
// vocabulary can hold tokens for.
//
// Printable ASCII (33..126) and printable Latin-1 (161..172, 174..255) map
// to themselves; the remaining 68 bytes are assigned code points 256..323 in
// ascending order of byte value.
var (
	alphabetOnce sync.Once
	byteToRune   [256]rune
	runeToByte   map[rune]byte
)

func initAlphabet() {
	isPrintable := func(b int) bool {
		return (b >= 33 && b <= 126) || (b >= 161 && b <= 172) || (b >= 174 && b <= 255)
	}

	runeToByte = make(map[rune]byte, 256)

	next := rune(256)
	for b := 0; b < 256; b++ {
		var r rune
		if isPrintable(b) {
			r = rune(b)
		} else {
			r = next
			next++
		}
		byteToRune[b] = r
		runeToByte[r] = byte(b)
	}
}

// ByteToRune maps a raw byte to its GPT-2 byte-level code point.
func ByteToRune(b byte) rune {
	alphabetOnce.Do(initAlphabet)
	return byteToRune[b]
}

// RuneToByte is the inverse of ByteToRune. ok is false for any code point
// outside the 256-entry alphabet.
func RuneToByte(r rune) (byte, bool) {
	alphabetOnce.Do(initAlphabet)
	b, ok := runeToByte[r]
	return b, ok
}

// EncodeBytes maps each byte of s (interpreted as raw bytes, not runes) to
// its alphabet code point, producing the printable string a byte-level BPE
// vocabulary stores tokens in.
func EncodeBytes(s string) string {
	alphabetOnce.Do(initAlphabet)
	out := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = byteToRune[s[i]]
	}
	return string(out)
}

// DecodeBytes is the inverse of EncodeBytes for runes in the alphabet. Runes
// outside it are passed through as their UTF-8 encoding, matching the
// ByteLevel decoder's tolerant behavior for stray text.
func DecodeBytes(s string) []byte {
	alphabetOnce.Do(initAlphabet)
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := runeToByte[r]; ok {
			out = append(out, b)
		} else {
			out = append(out, []byte(string(r))...)
		}
	}
	return out
}
