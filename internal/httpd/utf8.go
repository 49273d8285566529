/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package httpd

const (
	maxCodePoint   = 0x10FFFF
	surrogateStart = 0xD800
	surrogateEnd   = 0xDFFF
)

// validUTF8Path reports whether s is valid UTF-8 per RFC 3629: no lone
// continuation bytes, no lead byte announcing a sequence longer than
// 4 bytes, no decoded code point above U+10FFFF or in the surrogate
// range.
//
// The standard library's utf8 package already rejects overlong
// encodings at decode time, which is stricter than the original
// validator (a known quirk the spec calls out as an open question).
// To keep both behaviors available, this is a hand-rolled decoder:
// when strict is true it rejects overlong sequences same as the
// standard library would; when false it accepts them, reproducing
// the original's quirk for legacy compatibility.
func validUTF8Path(s string, strict bool) bool {
	for i := 0; i < len(s); {
		size, r, ok := decodeRune(s, i)
		if !ok {
			return false
		}
		if r > maxCodePoint || (r >= surrogateStart && r <= surrogateEnd) {
			return false
		}
		if strict && isOverlong(r, size) {
			return false
		}
		i += size
	}
	return true
}

// decodeRune decodes one UTF-8 sequence starting at s[i], without
// rejecting overlong encodings, so the strict/legacy split above can
// decide whether to reject them.
func decodeRune(s string, i int) (size int, r rune, ok bool) {
	b0 := s[i]

	switch {
	case b0 < 0x80:
		return 1, rune(b0), true
	case b0&0xE0 == 0xC0:
		size, r = 2, rune(b0&0x1F)
	case b0&0xF0 == 0xE0:
		size, r = 3, rune(b0&0x0F)
	case b0&0xF8 == 0xF0:
		size, r = 4, rune(b0&0x07)
	default:
		return 0, 0, false
	}

	if i+size > len(s) {
		return 0, 0, false
	}

	for j := 1; j < size; j++ {
		cb := s[i+j]
		if cb&0xC0 != 0x80 {
			return 0, 0, false
		}
		r = r<<6 | rune(cb&0x3F)
	}

	return size, r, true
}

// isOverlong reports whether a code point decoded from an n-byte
// sequence could have been encoded in fewer bytes.
func isOverlong(r rune, size int) bool {
	switch size {
	case 2:
		return r < 0x80
	case 3:
		return r < 0x800
	case 4:
		return r < 0x10000
	default:
		return false
	}
}
