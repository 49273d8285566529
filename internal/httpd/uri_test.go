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

var _ = Describe("decodeURI", func() {
	It("decodes a percent-escaped sequence", func() {
		Expect(decodeURI("%2e%2e%2fetc")).To(Equal("../etc"))
	})

	It("leaves non-hex escapes untouched", func() {
		Expect(decodeURI("100%zz")).To(Equal("100%zz"))
	})

	It("leaves a trailing bare '%' untouched", func() {
		Expect(decodeURI("abc%")).To(Equal("abc%"))
	})

	It("is idempotent on strings without '%'", func() {
		Expect(decodeURI("abcdef")).To(Equal("abcdef"))
	})
})

var _ = Describe("nullifyControlBytes", func() {
	It("replaces bytes below 0x20 with NUL", func() {
		got := nullifyControlBytes("a\tb")
		Expect(got[1]).To(Equal(byte(0)))
	})

	It("leaves clean strings untouched", func() {
		Expect(nullifyControlBytes("abcdef")).To(Equal("abcdef"))
	})
})

var _ = Describe("hasEmbeddedNUL", func() {
	It("detects a NUL byte", func() {
		Expect(hasEmbeddedNUL("a\x00b")).To(BeTrue())
	})

	It("reports false for a clean string", func() {
		Expect(hasEmbeddedNUL("abc")).To(BeFalse())
	})
})
