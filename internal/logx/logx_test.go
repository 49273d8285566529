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

package logx_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/mekdotlu/internal/logx"
)

func TestLogx(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "logx suite")
}

var _ = Describe("Logger", func() {
	It("appends lines to the configured log file", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "mekdotlu.log")

		l := logx.New(logx.WithFile(path))
		l.Reg("Initializing...")
		Expect(l.Close()).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("Initializing..."))
	})

	It("is a no-op on Perror when err is nil", func() {
		l := logx.New()
		l.Perror("main: mmap", nil)
		Expect(l.Close()).To(Succeed())
	})

	It("leaves file logging disabled for a blank path", func() {
		l := logx.New(logx.WithFile(""))
		Expect(l.Close()).To(Succeed())
	})
})
