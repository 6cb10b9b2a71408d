// Copyright 2022 Harald Albrecht.
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

package spaserve

import (
	"bytes"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// SPAHandler implements an http.Handler that serves static assets for all
// request paths looking like file names, that is, where the final path segment
// has an extension. All other request paths are considered to be client-side
// routes and get the index (root) document served instead.
type SPAHandler struct {
	fs                fs.FS         // the FS to serve static resources from.
	index             string        // (unrooted) path and name of the index/SPA file inside fs.
	staticfileHandler http.Handler  // FS adapted to http's file serving handler needs.
	indexRewriter     IndexRewriter // optional user function to rewrite the index/SPA file as necessary.
	rewriteBase       bool          // rewrite the index's base element from proxy headers?
}

// NewSPAHandler returns a new HTTP handler serving static resources from the
// specified fs. Requests for paths without an extension in their final path
// segment get the index resource served instead. The index resource should be
// specified as an unrooted, slash-separated path+name to be servable from the
// given fs; but NewSPAHandler will sanitize the index path anyway.
//
// The index parameter typically is "index.html"; please check with your SPA
// build environment documentation for the exact file name.
//
// In order to serve the static resources from a directory on the OS file
// system, use os.DirFS:
//
//	h := NewSPAHandler(os.DirFS("/app/client/dist"), "index.html")
func NewSPAHandler(fs fs.FS, index string, opts ...SPAHandlerOption) *SPAHandler {
	h := &SPAHandler{
		fs:                fs,
		staticfileHandler: http.FileServer(http.FS(fs)),
		index:             path.Clean("/" + index)[1:],
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SPAHandlerOption sets optional properties at the time of creating an
// SPAHandler.
type SPAHandlerOption func(*SPAHandler)

// IndexRewriter rewrites (parts) of an index/SPA file contents to be delivered
// to a requesting client, after the base element has been updated (if
// enabled). It can be optionally activated using the WithIndexRewriter option
// when creating a new SPAHandler.
type IndexRewriter func(r *http.Request, index string) string

// WithIndexRewriter sets the specified IndexRewriter that gets called before
// delivering the index/SPA file contents to requesting clients, allowing for
// application-specific changes.
func WithIndexRewriter(rewriter IndexRewriter) SPAHandlerOption {
	return func(h *SPAHandler) {
		h.indexRewriter = rewriter
	}
}

// WithBaseRewriting enables rewriting the index file's HTML base element to
// the base path as seen by clients, based on forwarding proxy headers. Without
// this option the index file is served byte-for-byte.
func WithBaseRewriting() SPAHandlerOption {
	return func(h *SPAHandler) {
		h.rewriteBase = true
	}
}

// IsFileRequest returns true if the final segment of the specified URL path
// contains a ".", so it refers to a static asset instead of a client-side
// route. A path ending in "/" has an empty final segment and thus is never a
// file request.
func IsFileRequest(urlpath string) bool {
	return strings.Contains(urlpath[strings.LastIndex(urlpath, "/")+1:], ".")
}

// ServeHTTP serves a static asset for file requests and the index asset for
// all other request paths. This behavior is required for SPAs with
// client-side DOM routers, as otherwise bookmarking (router) links or reloading
// an SPA with the current route other than "/" would fail.
func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "405 method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// Decide on the path as received and still escaped, so "/foo.d/" and
	// "/app%2Ejs" count as routes.
	fileRequest := IsFileRequest(r.URL.EscapedPath())
	// Get the absolute and also cleaned path to the requested resource in order
	// to prevent parent directory traversal outside the static assets
	// directory. Slapping "/" ensures that path.Clean does NOT to use the
	// current working dir for resolving the request path.
	r.URL.Path = path.Clean("/" + r.URL.Path)
	r.URL.RawPath = ""
	// The index stays the same document however it is asked for, and "/."
	// or "/.." must not end up listing the root directory.
	if fileRequest && r.URL.Path != "/" && r.URL.Path[1:] != h.index {
		h.serveStaticAsset(w, r)
		return
	}
	h.serveIndex(w, r)
}

// serveIndex serves the index file, rewriting its HTML base element when
// enabled and passing it through the optional IndexRewriter.
func (h *SPAHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	var err error
	defer func() {
		if err != nil {
			NormalizedHttpError(w, err)
		}
	}()
	f, err := h.fs.Open(h.index)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()
	fileInfo, err := f.Stat()
	if err != nil {
		return
	}
	if fileInfo.IsDir() {
		err = fs.ErrNotExist
		return
	}
	contents, err := io.ReadAll(f)
	if err != nil {
		return
	}
	index := string(contents)
	if h.rewriteBase {
		index = rewriteBase(index, h.basename(r))
	}
	if h.indexRewriter != nil {
		index = h.indexRewriter(r, index)
	}
	http.ServeContent(w, r, path.Base(h.index), fileInfo.ModTime(), strings.NewReader(index))
}

// serveStaticAsset serves the static asset specified in the request path from
// the SPAHandler's fs. Regular files are served directly, so a nested
// ".../index.html" doesn't get redirected to "./"; directories are left to
// http.FileServer.
//
// IMPORTANT: the passed r.URL.Path must have already been sanitized.
func (h *SPAHandler) serveStaticAsset(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Path[1:] // ...fs.FS uses unrooted paths.
	info, err := fs.Stat(h.fs, name)
	if err != nil {
		NormalizedHttpError(w, err)
		return
	}
	if info.IsDir() {
		h.staticfileHandler.ServeHTTP(w, r)
		return
	}
	if !info.Mode().IsRegular() {
		NormalizedHttpError(w, fs.ErrPermission)
		return
	}
	f, err := h.fs.Open(name)
	if err != nil {
		NormalizedHttpError(w, err)
		return
	}
	defer func() { _ = f.Close() }()
	// Not all fs.File implementations are seekable, so fall back to reading
	// the whole asset when necessary.
	content, ok := f.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(f)
		if err != nil {
			NormalizedHttpError(w, err)
			return
		}
		content = bytes.NewReader(data)
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), content)
}
