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
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/mekdotlu/internal/httpd"
	"github.com/nabbar/mekdotlu/internal/logx"
)

var _ = Describe("Handler.ServeConn", func() {
	var docroot string

	BeforeEach(func() {
		docroot = GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(docroot, "index.html"), []byte("<html>hi</html>"), 0644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(docroot, "robots.txt"), []byte("User-agent: *\n"), 0644)).To(Succeed())
	})

	serve := func(h *httpd.Handler, raw string) string {
		client, server := net.Pipe()
		go func() {
			h.ServeConn(server, time.Now())
		}()

		_, err := client.Write([]byte(raw))
		Expect(err).NotTo(HaveOccurred())

		var sb strings.Builder
		buf := make([]byte, 4096)
		for {
			_ = client.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
			n, err := client.Read(buf)
			sb.Write(buf[:n])
			if err != nil {
				break
			}
		}
		client.Close()
		return sb.String()
	}

	It("serves the index page for GET /", func() {
		h := &httpd.Handler{DocumentRoot: docroot, StrictUTF8: true, Log: logx.New()}
		resp := serve(h, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")

		line, _, _ := bufio.NewReader(strings.NewReader(resp)).ReadLine()
		Expect(string(line)).To(Equal("HTTP/1.1 200 OK"))
		Expect(resp).To(ContainSubstring("<html>hi</html>"))
	})

	It("serves robots.txt as plain text", func() {
		h := &httpd.Handler{DocumentRoot: docroot, StrictUTF8: true, Log: logx.New()}
		resp := serve(h, "GET /robots.txt HTTP/1.0\r\n\r\n")

		Expect(resp).To(ContainSubstring("200 OK"))
		Expect(resp).To(ContainSubstring("Content-Type: text/plain"))
	})

	It("returns a killing 400 and the built-in error body for a malformed path", func() {
		h := &httpd.Handler{DocumentRoot: docroot, StrictUTF8: true, Log: logx.New()}
		resp := serve(h, "GET /../etc/passwd HTTP/1.1\r\n\r\n")

		Expect(resp).To(ContainSubstring("400 Bad Request"))
		Expect(resp).To(ContainSubstring("Connection: close"))
		Expect(resp).To(ContainSubstring("Your request could not be served"))
	})

	It("suppresses the body for HEAD", func() {
		h := &httpd.Handler{DocumentRoot: docroot, StrictUTF8: true, Log: logx.New()}
		resp := serve(h, "HEAD / HTTP/1.1\r\n\r\n")

		Expect(resp).To(ContainSubstring("200 OK"))
		Expect(resp).NotTo(ContainSubstring("<html>hi</html>"))
	})
})
