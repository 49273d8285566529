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
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/nabbar/mekdotlu/internal/logx"
	"github.com/nabbar/mekdotlu/internal/netutil"
	"github.com/nabbar/mekdotlu/internal/rewrite"
)

const (
	headerReadTimeout   = 1 * time.Second
	bodyReadTimeout     = 5 * time.Second
	keepAliveTimeout    = 5 * time.Second
	fileStreamChunkSize = 64
)

// Handler serves every request arriving on one connection until the
// client disconnects, a Kill-triggering response is sent, or the
// keep-alive timeout lapses, mirroring request_process's per-socket
// loop.
type Handler struct {
	DocumentRoot string
	StrictUTF8   bool
	Log          *logx.Logger
}

// ServeConn drives the request/response loop for one accepted
// connection. accepted is the time the listener accepted conn, used
// to measure the wait before the first request's parsing begins; it
// always closes conn before returning.
func (h *Handler) ServeConn(conn net.Conn, accepted time.Time) {
	defer conn.Close()

	remote := conn.RemoteAddr()
	r := bufio.NewReader(conn)

	ready := accepted
	for {
		parseStart := time.Now()
		_ = conn.SetReadDeadline(parseStart.Add(headerReadTimeout))
		req, perr := ParseRequest(r, h.StrictUTF8)

		waited := parseStart.Sub(ready)

		var resp response
		if perr != nil {
			if pe, ok := perr.(*ParseError); ok {
				resp = h.errorResponse(pe.Code, req)
			} else {
				// a read failure (EOF, timeout, reset): nothing to
				// answer, just drop the connection
				return
			}
		} else {
			_ = conn.SetReadDeadline(time.Now().Add(bodyReadTimeout))
			resp = h.buildResponse(req)
		}

		h.writeResponse(conn, resp)

		elapsed := time.Since(parseStart)
		h.logAccess(remote, req, resp, waited, elapsed)

		if resp.kill {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(keepAliveTimeout))
		if !peekable(r) {
			return
		}
		ready = time.Now()
	}
}

// peekable reports whether more request data is likely to arrive
// before the keep-alive deadline, mirroring the original's poll()
// call checking for POLLIN without POLLHUP.
func peekable(r *bufio.Reader) bool {
	_, err := r.Peek(1)
	return err == nil
}

// response is the fully-decided outcome of one request, ready to be
// written to the wire.
type response struct {
	code         int
	major, minor int
	method       string
	kill         bool

	location     string // non-empty for a redirect
	contentType  string
	body         io.Reader
	bodyLen      int
	lastModified time.Time
}

func (h *Handler) errorResponse(code int, req *Request) response {
	major, minor := 1, 0
	method := "GET"
	if req != nil {
		major, minor, method = req.VersionMaj, req.VersionMin, req.Method
	}
	return response{
		code:   code,
		major:  major,
		minor:  minor,
		method: method,
		kill:   Kill(code),
	}
}

func (h *Handler) buildResponse(req *Request) response {
	rw := rewrite.Rewrite(req.Path)

	resp := response{major: req.VersionMaj, minor: req.VersionMin, method: req.Method}

	if rw.Kind == rewrite.Error {
		resp.code = 400
		resp.kill = true
		return resp
	}

	f, err := os.Open(filepath.Join(h.DocumentRoot, rw.Path))
	if err != nil {
		if os.IsPermission(err) {
			resp.code = 403
		} else {
			resp.code = 404
		}
		resp.kill = Kill(resp.code)
		return resp
	}
	defer f.Close()

	stat, err := f.Stat()
	var modified time.Time
	if err == nil {
		modified = stat.ModTime()
	}

	switch rw.Kind {
	case rewrite.Redirect:
		location, rerr := readFirstLine(f)
		if rerr != nil {
			resp.code = 500
			resp.kill = true
			return resp
		}
		resp.code = 302
		resp.location = location
		resp.lastModified = modified
		resp.contentType = "text/plain"
		resp.bodyLen = 0
	case rewrite.XHTML, rewrite.Text:
		resp.code = 200
		resp.lastModified = modified
		if rw.Kind == rewrite.XHTML {
			resp.contentType = "application/xhtml+xml"
		} else {
			resp.contentType = "text/plain"
		}
		// this function's deferred Close runs before writeResponse
		// gets the response, so hand the caller a buffered copy
		// instead of a closed *os.File. The read takes a non-blocking
		// shared advisory lock first; when the lock is held
		// exclusively elsewhere, the file is read without it.
		locked, lerr := netutil.FlockShared(f)
		if lerr == nil && locked {
			defer netutil.Funlock(f)
		}
		buf, _ := io.ReadAll(f)
		resp.body = bytes.NewReader(buf)
		resp.bodyLen = len(buf)
	}

	resp.kill = Kill(resp.code)
	return resp
}

func readFirstLine(r io.Reader) (string, error) {
	br := bufio.NewReader(r)
	line, err := br.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	line = trimCRLF(line)
	return line, nil
}

func trimCRLF(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func (h *Handler) writeResponse(w io.Writer, r response) {
	fmt.Fprint(w, StatusLine(r.major, r.minor, r.code))
	fmt.Fprint(w, "Server: mek.lu\r\n")
	fmt.Fprintf(w, "Date: %s\r\n", time.Now().UTC().Format(httpDateFormat))

	if r.location != "" {
		fmt.Fprintf(w, "Location: %s\r\n", r.location)
	}

	if r.code == 302 || r.code == 200 {
		if !r.lastModified.IsZero() {
			fmt.Fprintf(w, "Last-Modified: %s\r\n", r.lastModified.UTC().Format(httpDateFormat))
		}
		if r.contentType != "" {
			fmt.Fprintf(w, "Content-Type: %s; charset=utf-8\r\n", r.contentType)
			fmt.Fprintf(w, "Content-Length: %d\r\n", r.bodyLen)
		}
	}

	if r.kill {
		fmt.Fprint(w, "Connection: close\r\n")
	} else if r.major == 1 && r.minor == 0 {
		fmt.Fprint(w, "Connection: keep-alive\r\n")
	}

	errBody := ""
	if r.code >= 400 {
		errBody = ErrorBody(r.code)
		fmt.Fprint(w, "Content-Type: application/xhtml+xml; charset=utf-8\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n", len(errBody))
	}

	fmt.Fprint(w, "\r\n")

	if r.method == "HEAD" {
		return
	}

	if r.code == 200 && r.body != nil {
		buf := make([]byte, fileStreamChunkSize)
		io.CopyBuffer(w, r.body, buf)
	}

	if r.code >= 400 {
		fmt.Fprint(w, errBody)
	}
}

const httpDateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

func (h *Handler) logAccess(remote net.Addr, req *Request, resp response, waited, total time.Duration) {
	rawLine, ua := "", ""
	if req != nil {
		rawLine, ua = req.RawLine, req.UserAgent
	}

	h.Log.Access(
		resp.code,
		"%d:%s - %q - %s - W %.3fms - R %.3fms",
		resp.code, remote,
		rawLine, ua,
		waited.Seconds()*1000,
		total.Seconds()*1000,
	)
}
