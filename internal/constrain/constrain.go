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

// Package constrain reduces the supervisor's own privileges before it
// starts binding sockets and spawning workers: chdir into the
// document root, and chroot into it when running as root.
package constrain

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/nabbar/mekdotlu/internal/errs"
	"github.com/nabbar/mekdotlu/internal/logx"
)

// ToDocumentRoot chdirs into path, and chroots into it when the
// process is running as root, mirroring server_constrain. chroot
// needs an absolute path; a relative one is rejected up front rather
// than silently chdir-ing somewhere chroot can't reach.
//
// Running as root and chrooting happens before the supervisor spawns
// any worker, and a worker is spawned by re-exec'ing the binary's own
// absolute path (os.Executable), which is no longer reachable once
// the root filesystem has been replaced. This is fine for the
// non-root path this server is meant to run on; a root deployment
// needs the binary copied inside the document root first.
func ToDocumentRoot(log *logx.Logger, path string) error {
	if path == "" || path[0] != '/' {
		return errs.New(errs.MinPkgConstrain, fmt.Sprintf("poor path name for document root: %s", path))
	}

	log.Reg("server: setting document root to %s", path)

	if err := unix.Chdir(path); err != nil {
		log.Perror("server: chdir", err)
		return errs.Wrap(errs.MinPkgConstrain, "chdir", err)
	}

	if os.Geteuid() != 0 {
		log.Warning("server: not running as root, skipping chroot")
		return nil
	}

	if err := unix.Chroot(path); err != nil {
		log.Perror("server: chroot", err)
		return errs.Wrap(errs.MinPkgConstrain, "chroot", err)
	}

	log.Ok("server: chroot successful!")
	return nil
}
