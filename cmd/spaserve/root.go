// Copyright 2026 The spaserve Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/storefront/spaserve"
	"github.com/storefront/spaserve/internal/accesslog"
)

// Defaults matching the SPA container image layout.
const (
	defaultRoot  = "/app/client/dist"
	defaultBind  = "0.0.0.0"
	defaultPort  = 3000
	defaultIndex = "index.html"
)

type options struct {
	root        string
	bind        string
	port        int
	index       string
	logLevel    string
	rewriteBase bool
}

func (o *options) addFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&o.root, "root", "d", defaultRoot, "directory with the SPA's static assets")
	flags.StringVarP(&o.bind, "bind", "b", defaultBind, "address to bind to")
	flags.IntVarP(&o.port, "port", "p", defaultPort, "port to listen on")
	flags.StringVar(&o.index, "index", defaultIndex, "index document served for client-side routes, relative to root")
	flags.StringVar(&o.logLevel, "log-level", logrus.InfoLevel.String(), "log level (trace, debug, info, warn, error)")
	flags.BoolVar(&o.rewriteBase, "rewrite-base", false,
		"rewrite the index document's <base href> from X-Forwarded-Prefix/X-Forwarded-Uri headers")
}

// newRootCmd returns the spaserve command, logging to the specified logger.
func newRootCmd(log *logrus.Logger) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "spaserve",
		Short:         "serve a single page application with client-side routing",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, log, opts)
		},
	}
	opts.addFlags(cmd.Flags())
	return cmd
}

func run(cmd *cobra.Command, log *logrus.Logger, opts *options) error {
	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	log.SetLevel(level)

	if opts.port < 0 || opts.port > 65535 {
		return errors.Errorf("invalid port %d", opts.port)
	}
	info, err := os.Stat(opts.root)
	if err != nil {
		return errors.Wrapf(err, "cannot access root directory %q", opts.root)
	}
	if !info.IsDir() {
		return errors.Errorf("root %q is not a directory", opts.root)
	}
	log.WithFields(logrus.Fields{
		"root":  opts.root,
		"index": opts.index,
	}).Debug("serving static assets")

	var spaopts []spaserve.SPAHandlerOption
	if opts.rewriteBase {
		spaopts = append(spaopts, spaserve.WithBaseRewriting())
	}
	handler := accesslog.Handler(log,
		spaserve.NewSPAHandler(os.DirFS(opts.root), opts.index, spaopts...))

	addr := net.JoinHostPort(opts.bind, strconv.Itoa(opts.port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "cannot listen on %s", addr)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return serve(ctx, log, listener, handler)
}
