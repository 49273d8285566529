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

// Package httpd hand-parses HTTP/1.x request lines and headers off a
// raw connection, the way request_populate does: a fixed-size line
// buffer, a cap on header count, and no tolerance for malformed
// framing. net/http's own server is never used here -- this server
// owns the wire format end to end, which is the whole point of it.
package httpd

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/nabbar/mekdotlu/internal/errs"
)

const (
	maxLineLength = 4096
	maxHeaders    = 100
)

// Request is the parsed, decoded form of one HTTP request.
type Request struct {
	Method     string
	Path       string // decoded, pre-rewrite
	RawLine    string // the request line, minus CRLF
	VersionMaj int
	VersionMin int
	UserAgent  string
}

// ParseError reports the HTTP status code a malformed request should
// receive. Read failures are not reported as a ParseError: ParseRequest
// returns the read error itself, and the caller drops the connection
// without sending a response.
type ParseError struct {
	Code int
	err  error
}

func (p *ParseError) Error() string {
	if p.err != nil {
		return fmt.Sprintf("httpd: parse: %d: %s", p.Code, p.err)
	}
	return fmt.Sprintf("httpd: parse: %d", p.Code)
}

func parseErr(code int, format string, args ...any) *ParseError {
	return &ParseError{Code: code, err: fmt.Errorf(format, args...)}
}

// ParseRequest reads a request line and headers from r, per the
// table: malformed framing and a disallowed method are 400 (except
// BREW, which is 418); an unparseable or pre-1.0 version is 400; a
// parseable but unsupported version is 505; a missing ": " separator
// in a header line is 400; a single line exceeding maxLineLength is
// framing exhaustion and reported as 431. Exceeding maxHeaders lines
// without seeing the blank line simply stops the header scan and lets
// the request proceed with whatever was parsed so far, the way
// request_populate returns once its fixed header array fills up.
func ParseRequest(r *bufio.Reader, strictUTF8 bool) (*Request, error) {
	req := &Request{VersionMaj: 1, VersionMin: 0}

	for line := 0; line < maxHeaders; line++ {
		raw, err := readLine(r)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, parseErr(431, "line exceeds %d bytes", maxLineLength)
		}

		text := *raw
		if len(text) < 2 || hasEmbeddedNUL(text) || !strings.HasSuffix(text, "\r\n") {
			return nil, parseErr(400, "malformed line framing")
		}
		text = text[:len(text)-2]

		if line == 0 {
			if err := parseRequestLine(req, text, strictUTF8); err != nil {
				return nil, err
			}
			continue
		}

		if text == "" {
			return req, nil
		}

		name, value, ok := strings.Cut(text, ": ")
		if !ok {
			return nil, parseErr(400, "header missing ': ' separator")
		}
		if strings.EqualFold(name, "User-Agent") {
			req.UserAgent = value
		}
	}

	return req, nil
}

func parseRequestLine(req *Request, line string, strictUTF8 bool) error {
	req.RawLine = line

	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return parseErr(400, "expected exactly two spaces in request line")
	}

	method, rawPath, version := parts[0], parts[1], parts[2]

	switch method {
	case "GET", "HEAD":
		req.Method = method
	case "BREW":
		return parseErr(418, "teapot")
	default:
		return parseErr(400, "unsupported method %q", method)
	}

	if i := strings.IndexByte(rawPath, '?'); i >= 0 {
		rawPath = rawPath[:i]
	}

	decoded := nullifyControlBytes(decodeURI(rawPath))
	if hasEmbeddedNUL(decoded) || !strings.HasPrefix(decoded, "/") {
		return parseErr(400, "path does not start with '/' or contains an embedded NUL")
	}
	if !validUTF8Path(decoded, strictUTF8) {
		return parseErr(400, "path is not valid UTF-8")
	}
	req.Path = decoded

	maj, min, err := parseVersion(version)
	if err != nil {
		return parseErr(400, "unparseable HTTP version %q", version)
	}
	if maj <= 0 || min < 0 {
		return parseErr(400, "invalid HTTP version %q", version)
	}
	if !((maj == 1 && min == 1) || (maj == 1 && min == 0)) {
		return parseErr(505, "unsupported HTTP version %d.%d", maj, min)
	}
	req.VersionMaj, req.VersionMin = maj, min

	return nil
}

func parseVersion(s string) (maj int, min int, err error) {
	const prefix = "HTTP/"
	if !strings.HasPrefix(s, prefix) {
		return 0, 0, parseErr(400, "missing HTTP/ prefix")
	}
	majMin := strings.SplitN(s[len(prefix):], ".", 2)
	if len(majMin) != 2 {
		return 0, 0, parseErr(400, "missing version separator")
	}
	maj, err1 := strconv.Atoi(majMin[0])
	min, err2 := strconv.Atoi(majMin[1])
	if err1 != nil || err2 != nil {
		return 0, 0, parseErr(400, "non-numeric version")
	}
	return maj, min, nil
}

// readLine reads a single CRLF-or-overflow-terminated line bounded by
// maxLineLength bytes, mirroring request_getline's truncation
// behavior. A nil, nil return means the line exceeded the bound
// without reaching its terminator.
func readLine(r *bufio.Reader) (*string, error) {
	buf := make([]byte, 0, 256)

	for len(buf) < maxLineLength {
		b, err := r.ReadByte()
		if err != nil {
			if len(buf) == 0 {
				return nil, errs.Wrap(errs.MinPkgParser, "read request line", err)
			}
			s := string(buf)
			return &s, nil
		}
		buf = append(buf, b)
		if b == '\n' {
			s := string(buf)
			return &s, nil
		}
	}

	return nil, nil
}
