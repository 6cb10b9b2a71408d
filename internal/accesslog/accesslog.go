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

/*
Package accesslog logs a single line per served HTTP request, similar to what
classic static file servers print to stderr.
*/
package accesslog

import (
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Handler returns an http.Handler logging each request passed on to the
// specified next handler at info level, with the request's method, path,
// response status and size, remote address, and duration as fields.
// Responses with status 500 and above get logged at error level.
func Handler(log logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// The SPA handler rewrites r.URL.Path, so grab it first.
		method, path := r.Method, r.URL.Path
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		entry := log.WithFields(logrus.Fields{
			"method":   method,
			"path":     path,
			"status":   sw.status,
			"bytes":    sw.size,
			"remote":   r.RemoteAddr,
			"duration": time.Since(start),
		})
		if sw.status >= http.StatusInternalServerError {
			entry.Error(http.StatusText(sw.status))
			return
		}
		entry.Info(http.StatusText(sw.status))
	})
}

// statusWriter records the status code and number of body bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	size   int64
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

// ReadFrom keeps the wrapped writer's io.ReaderFrom (and thus sendfile)
// reachable for io.Copy.
func (w *statusWriter) ReadFrom(r io.Reader) (n int64, err error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if rf, ok := w.ResponseWriter.(io.ReaderFrom); ok {
		n, err = rf.ReadFrom(r)
	} else {
		n, err = io.Copy(w.ResponseWriter, r)
	}
	w.size += n
	return n, err
}

// Unwrap allows http.ResponseController to reach the wrapped writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
