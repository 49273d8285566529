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

// Package rewrite maps an externally visible, decoded request path to
// the on-disk path under the document root, per the bucketed layout:
// a slug's first three Unicode code points become a bucket directory
// so that no directory on disk ever holds an unbounded fan-out of
// files.
package rewrite

import (
	"unicode/utf8"
)

// Kind classifies the outcome of Rewrite.
type Kind int

const (
	// Error means the path was malformed; Result.Path is empty and the
	// caller should respond 400.
	Error Kind = iota
	// Redirect means Result.Path names a file whose first line is a
	// redirect target.
	Redirect
	// XHTML means Result.Path names the `/` index page.
	XHTML
	// Text means Result.Path names a plain-text document (robots.txt).
	Text
)

// Result is the outcome of rewriting one decoded request path.
type Result struct {
	Kind Kind
	Path string
}

// errResult is the single malformed-path sentinel value.
var errResult = Result{Kind: Error}

// Rewrite implements the path-rewrite state machine described by the
// external URL conventions: `/` serves the index page, `/robots.txt`
// serves the robots file, `/e/<slug>` and `/<slug>` bucket into `e/`
// and `i/` trees respectively by the slug's first three code points.
//
// path must already be decoded (see httpd's decodeURI) and begin with
// `/`; Rewrite does not itself decode percent escapes.
func Rewrite(path string) Result {
	if path == "/" {
		return Result{Kind: XHTML, Path: "index.html"}
	}
	if path == "/robots.txt" {
		return Result{Kind: Text, Path: "robots.txt"}
	}

	root := "i/"
	body := path[1:]
	if len(path) >= 3 && path[1] == 'e' && path[2] == '/' {
		root = "e/"
		body = path[3:]
	}

	prefixLen, ok := codePointPrefixByteLen(body, 3)
	if !ok || len(body) <= prefixLen {
		// the slug must carry at least one byte beyond its own bucket
		// prefix, or the bucket directory and the slug would collapse
		return errResult
	}

	if containsSlashOrBackslash(body) {
		return errResult
	}

	return Result{Kind: Redirect, Path: root + body[:prefixLen] + "/" + body}
}

// codePointPrefixByteLen returns the byte length of the first n
// Unicode code points of s, and false if s has fewer than n code
// points or its first n code points contain invalid UTF-8. Bytes past
// the first n code points are not examined.
func codePointPrefixByteLen(s string, n int) (int, bool) {
	if s == "" {
		return 0, false
	}

	length := 0
	count := 0
	for count < n {
		if length >= len(s) {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(s[length:])
		if r == utf8.RuneError && size <= 1 {
			return 0, false
		}
		length += size
		count++
	}
	return length, true
}

func containsSlashOrBackslash(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' || s[i] == '\\' {
			return true
		}
	}
	return false
}
