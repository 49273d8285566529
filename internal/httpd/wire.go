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

import "fmt"

// reasonPhrase is the fixed set of reason strings this server ever
// emits; codes outside this set get "Unknown Response Code".
var reasonPhrase = map[int]string{
	200: "OK",
	302: "Found",
	400: "Bad Request",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	408: "Request Timeout",
	413: "Request Entity Too Large",
	418: "I'm a teapot",
	431: "Request Header Fields Too Large",
	500: "Internal Server Error",
	501: "Not Implemented",
	505: "HTTP Version Not Supported",
}

// Reason returns the reason phrase for code.
func Reason(code int) string {
	if r, ok := reasonPhrase[code]; ok {
		return r
	}
	return "Unknown Response Code"
}

// Kill reports whether the connection must close after this response:
// every 5xx, plus 400 and 418 specifically (the rest of the 4xx range
// stays alive).
func Kill(code int) bool {
	return code >= 500 || code == 400 || code == 418
}

// StatusLine formats the status line, e.g. "HTTP/1.1 200 OK\r\n".
func StatusLine(major, minor, code int) string {
	return fmt.Sprintf("HTTP/%d.%d %d %s\r\n", major, minor, code, Reason(code))
}

// errorBodyTemplate is byte-for-byte the original's built-in error
// page: an XHTML document naming the code and reason twice (title and
// h1).
const errorBodyTemplate = "<!DOCTYPE html>\n" +
	"<html xmlns=\"http://www.w3.org/1999/xhtml\">\n" +
	"<head>\n" +
	"<meta charset=\"utf-8\" />\n" +
	"<title>%d %s</title>\n" +
	"</head>\n" +
	"<body>\n" +
	"<h1>%d %s</h1>\n" +
	"<p>Your request could not be served.</p>\n" +
	"</body>\n" +
	"</html>\n"

// ErrorBody renders the built-in error page for code.
func ErrorBody(code int) string {
	reason := Reason(code)
	return fmt.Sprintf(errorBodyTemplate, code, reason, code, reason)
}
