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

// Package netutil binds the two listening sockets (IPv4 and IPv6) the
// way net_listen does in the original: one socket per family, IPv6
// restricted to IPv6-only traffic, backlog of 8.
package netutil

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

const backlog = 8

// Family identifies which address family a listening socket serves.
type Family int

const (
	IPv4 Family = iota
	IPv6
)

func (f Family) String() string {
	if f == IPv6 {
		return "ipv6"
	}
	return "ipv4"
}

// Bind creates, binds and starts listening on a socket for the given
// family and port, returning it as an *os.File so it can be handed to
// a re-exec'd child via exec.Cmd.ExtraFiles.
func Bind(family Family, port uint16) (*os.File, error) {
	domain := unix.AF_INET
	if family == IPv6 {
		domain = unix.AF_INET6
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("netutil: socket(%s): %w", family, err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("netutil: setsockopt(SO_REUSEADDR): %w", err)
	}

	if family == IPv6 {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 1); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("netutil: setsockopt(IPV6_V6ONLY): %w", err)
		}
	}

	if family == IPv4 {
		addr := &unix.SockaddrInet4{Port: int(port)}
		if err := unix.Bind(fd, addr); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("netutil: bind(%s): %w", family, err)
		}
	} else {
		addr := &unix.SockaddrInet6{Port: int(port)}
		if err := unix.Bind(fd, addr); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("netutil: bind(%s): %w", family, err)
		}
	}

	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("netutil: listen(%s): %w", family, err)
	}

	// os.NewFile takes ownership; it will be duped into the child via
	// ExtraFiles and reconstructed there with net.FileListener.
	unix.CloseOnExec(fd)
	syscall.SetNonblock(fd, true)

	return os.NewFile(uintptr(fd), fmt.Sprintf("mekdotlu-listener-%s", family)), nil
}
