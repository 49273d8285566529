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

// Command mekdotlu is the entry point for both roles of the service:
// run plainly, it is the supervisor that binds sockets and spawns
// listener workers; re-exec'd with MEKDOTLU_WORKER_FAMILY set, it is
// the listener worker itself, serving the socket and config handed to
// it over inherited file descriptors.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nabbar/mekdotlu/internal/config"
	"github.com/nabbar/mekdotlu/internal/constrain"
	"github.com/nabbar/mekdotlu/internal/logx"
	"github.com/nabbar/mekdotlu/internal/supervisor"
)

func main() {
	if fam := os.Getenv(supervisor.WorkerModeEnv); fam != "" {
		if err := runWorker(fam); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		port          uint16
		root          string
		logFile       string
		followSymlink bool
		forceColor    bool
		strictUTF8    bool
	)

	cmd := &cobra.Command{
		Use:   "mekdotlu",
		Short: "A small, hardened static file server",
		Long: "mekdotlu serves a document root over HTTP/1.x, rewriting short\n" +
			"slugs into bucketed paths and refusing anything that looks like a\n" +
			"path traversal attempt.",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			docroot, err := resolveDocumentRoot(root, followSymlink)
			if err != nil {
				return err
			}

			snap := config.Snapshot{
				DocumentRoot:  docroot,
				Port:          port,
				LogFile:       logFile,
				ForceColor:    forceColor,
				FollowSymlink: followSymlink,
				StrictUTF8:    strictUTF8,
			}

			log := logx.New(logx.WithFile(snap.LogFile), logx.WithForceColor(snap.ForceColor))
			defer log.Close()

			if err := constrain.ToDocumentRoot(log, snap.DocumentRoot); err != nil {
				return err
			}

			sup := &supervisor.Supervisor{Snapshot: snap, Log: log}
			return sup.Run(context.Background())
		},
	}

	flags := cmd.Flags()
	flags.Uint16VarP(&port, "port", "p", 8081, "listen port")
	flags.StringVarP(&root, "root", "r", "", "document root (defaults to the current directory)")
	flags.StringVarP(&logFile, "log", "o", "mekdotlu.log", "log file path (blank disables file logging)")
	flags.BoolVarP(&followSymlink, "follow-symlink", "f", false, "follow symbolic links for paths given on the command line")
	flags.BoolVar(&forceColor, "force-color", false, "force colored log output even when stdout is not a terminal")
	flags.BoolVar(&strictUTF8, "strict-utf8", true, "reject overlong UTF-8 encodings in request paths")

	return cmd
}

// resolveDocumentRoot mirrors config_realpath: resolve to an absolute,
// symlink-free path, defaulting to the current directory. Unless
// followSymlink is set, a path whose final component is itself a
// symlink is rejected; symlinks in earlier components are resolved
// either way.
func resolveDocumentRoot(path string, followSymlink bool) (string, error) {
	if path == "" {
		path = "."
	}

	info, err := os.Lstat(path)
	if err != nil {
		return "", fmt.Errorf("document root: %w", err)
	}
	if !followSymlink && info.Mode()&os.ModeSymlink != 0 {
		return "", fmt.Errorf("document root %q is a symlink; pass -f to follow it", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("document root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("document root: %w", err)
	}
	return resolved, nil
}
