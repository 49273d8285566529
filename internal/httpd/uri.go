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

// decodeURI decodes percent-escapes in s in place, idiom-for-idiom
// with the original's in-place decoder: a `%` not followed by two hex
// digits is copied through literally rather than rejected. Control
// bytes (0x00-0x1F) in the decoded result are nullified by the caller,
// same as request_populate does to the freshly decoded path.
func decodeURI(s string) string {
	buf := make([]byte, 0, len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			buf = append(buf, s[i])
			continue
		}

		if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
			// not a valid escape: copy the literal bytes seen so far,
			// exactly as the original's backtrack-and-copy branch does
			buf = append(buf, s[i])
			continue
		}

		buf = append(buf, hexVal(s[i+1])<<4|hexVal(s[i+2]))
		i += 2
	}

	return string(buf)
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexVal(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	default:
		return b - 'A' + 10
	}
}

// nullifyControlBytes replaces any byte below 0x20 with a NUL byte,
// mirroring request_log's and request_populate's control-character
// scrubbing.
func nullifyControlBytes(s string) string {
	hasControl := false
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 {
			hasControl = true
			break
		}
	}
	if !hasControl {
		return s
	}

	buf := []byte(s)
	for i := range buf {
		if buf[i] < 0x20 {
			buf[i] = 0
		}
	}
	return string(buf)
}

// hasEmbeddedNUL reports whether s, truncated at its first NUL byte,
// would be shorter than s itself -- the Go analogue of the original's
// strlen(buf) != off check.
func hasEmbeddedNUL(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return true
		}
	}
	return false
}
