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

package httpd_test

import (
	"bufio"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/mekdotlu/internal/httpd"
)

func parse(raw string) (*httpd.Request, error) {
	return httpd.ParseRequest(bufio.NewReader(strings.NewReader(raw)), true)
}

var _ = Describe("ParseRequest", func() {
	It("parses a minimal GET request", func() {
		req, err := parse("GET / HTTP/1.1\r\n\r\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(req.Method).To(Equal("GET"))
		Expect(req.Path).To(Equal("/"))
		Expect(req.VersionMaj).To(Equal(1))
		Expect(req.VersionMin).To(Equal(1))
	})

	It("captures the last User-Agent header when repeated", func() {
		req, err := parse("GET / HTTP/1.1\r\nUser-Agent: first\r\nUser-Agent: second\r\n\r\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(req.UserAgent).To(Equal("second"))
	})

	It("strips the query string from the path", func() {
		req, err := parse("GET /abcdef?x=1 HTTP/1.1\r\n\r\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(req.Path).To(Equal("/abcdef"))
	})

	It("rejects a method other than GET/HEAD with 400", func() {
		_, err := parse("POST / HTTP/1.1\r\n\r\n")
		var pe *httpd.ParseError
		Expect(err).To(BeAssignableToTypeOf(pe))
		Expect(err.(*httpd.ParseError).Code).To(Equal(400))
	})

	It("maps BREW to 418", func() {
		_, err := parse("BREW /coffee HTTP/1.1\r\n\r\n")
		Expect(err.(*httpd.ParseError).Code).To(Equal(418))
	})

	It("rejects a request line without exactly two spaces", func() {
		_, err := parse("GET /\r\n\r\n")
		Expect(err.(*httpd.ParseError).Code).To(Equal(400))
	})

	It("rejects an unparseable version with 400", func() {
		_, err := parse("GET / FOO\r\n\r\n")
		Expect(err.(*httpd.ParseError).Code).To(Equal(400))
	})

	It("rejects an unsupported but parseable version with 505", func() {
		_, err := parse("GET / HTTP/2.0\r\n\r\n")
		Expect(err.(*httpd.ParseError).Code).To(Equal(505))
	})

	It("rejects a header missing the ': ' separator", func() {
		_, err := parse("GET / HTTP/1.1\r\nX-Bad:value\r\n\r\n")
		Expect(err.(*httpd.ParseError).Code).To(Equal(400))
	})

	It("rejects a path not starting with '/'", func() {
		_, err := parse("GET abc HTTP/1.1\r\n\r\n")
		Expect(err.(*httpd.ParseError).Code).To(Equal(400))
	})

	It("decodes a percent-escaped path", func() {
		req, err := parse("GET /%2e%2e%2fetc HTTP/1.1\r\n\r\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(req.Path).To(Equal("/../etc"))
	})
})
