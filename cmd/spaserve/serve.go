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
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// shutdownTimeout bounds waiting for in-flight requests when terminating.
const shutdownTimeout = 5 * time.Second

// serve serves HTTP requests on the specified listener until either serving
// fails or the context gets cancelled, in which case the server is shut down
// gracefully. The listener is closed in any case.
func serve(ctx context.Context, log logrus.FieldLogger, listener net.Listener, handler http.Handler) error {
	server := &http.Server{Handler: handler}
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(listener)
	}()
	log.WithField("address", listener.Addr().String()).Info("serving SPA")

	select {
	case err := <-done:
		return errors.Wrap(err, "serving failed")
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown failed")
	}
	log.Info("stopped")
	return nil
}
