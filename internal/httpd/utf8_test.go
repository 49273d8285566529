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

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("validUTF8Path", func() {
	It("accepts plain ASCII", func() {
		Expect(validUTF8Path("/abcdef", true)).To(BeTrue())
	})

	It("accepts well-formed multi-byte sequences", func() {
		Expect(validUTF8Path("/café", true)).To(BeTrue())
	})

	It("rejects a lone continuation byte", func() {
		Expect(validUTF8Path(string([]byte{'/', 0x80}), true)).To(BeFalse())
	})

	It("rejects a 5-byte lead announcing too long a sequence", func() {
		Expect(validUTF8Path(string([]byte{0xF8, 0x80, 0x80, 0x80, 0x80}), true)).To(BeFalse())
	})

	It("rejects an encoded surrogate code point", func() {
		// U+D800 encoded as a (structurally valid) 3-byte sequence
		Expect(validUTF8Path(string([]byte{0xED, 0xA0, 0x80}), true)).To(BeFalse())
	})

	It("rejects a code point above U+10FFFF", func() {
		// U+110000 encoded as a 4-byte sequence
		Expect(validUTF8Path(string([]byte{0xF4, 0x90, 0x80, 0x80}), true)).To(BeFalse())
	})

	It("in strict mode rejects an overlong encoding of U+002F", func() {
		Expect(validUTF8Path(string([]byte{0xC0, 0xAF}), true)).To(BeFalse())
	})

	It("in legacy mode accepts the same overlong encoding", func() {
		Expect(validUTF8Path(string([]byte{0xC0, 0xAF}), false)).To(BeTrue())
	})
})
