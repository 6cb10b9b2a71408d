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
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// ForwardedPrefixHeader, if present, specifies the prefix that needs to be
// prepended to the request's URI path in order to learn the original path
// when hitting the path rewriting proxy.
const ForwardedPrefixHeader = "X-Forwarded-Prefix"

// ForwardedUriHeader, if present, specifies the original URI (or sometimes only
// the original URI path) of a request when hitting the first path rewriting
// proxy.
const ForwardedUriHeader = "X-Forwarded-Uri"

// baseRe matches the base element in index.html. "*?" keeps the match from
// running until the last empty element in the document.
var baseRe = regexp.MustCompile(`(<base href=").*?("\s*/?>)`)

// rewriteBase replaces the href of the index document's base element(s) with
// the specified base path.
func rewriteBase(index string, base string) string {
	// "$" would interfere with the "$1" and "$2" back references and isn't
	// needed in SPA paths anyway.
	base = strings.ReplaceAll(base, "$", "")
	return baseRe.ReplaceAllString(index, "${1}"+base+"${2}")
}

// originalReqPath returns the (hopefully) original path when hitting the first
// proxy in a chain, based on what has been passed down to us. Without suitable
// forwarding information, it returns the already sanitized request URL path.
func (h *SPAHandler) originalReqPath(r *http.Request) string {
	if fwprefix := r.Header.Get(ForwardedPrefixHeader); fwprefix != "" {
		fwprefix = path.Clean("/" + fwprefix)
		return path.Join(fwprefix, r.URL.Path)
	}
	// Some proxies pass only the request path, others the full URI.
	if fwurl := r.Header.Get(ForwardedUriHeader); fwurl != "" {
		if strings.HasPrefix(fwurl, "/") {
			return path.Clean(fwurl)
		}
		if u, err := url.Parse(fwurl); err == nil {
			return path.Clean("/" + u.Path)
		}
	}
	return r.URL.Path
}

// basename returns the URI request path base as seen by clients, consulting
// proxy headers when available. If deriving the base is impossible, it is "/".
func (h *SPAHandler) basename(r *http.Request) string {
	reqPath := r.URL.Path
	originalReqPath := h.originalReqPath(r)
	if strings.HasSuffix(reqPath, "/") && !strings.HasSuffix(originalReqPath, "/") {
		// the reverse proxy redirected /foo to /foo/ and then rewrote the path
		// to /.
		originalReqPath += "/"
	}
	var base string
	if strings.HasSuffix(originalReqPath, reqPath) {
		base = originalReqPath[:len(originalReqPath)-len(reqPath)]
	}
	// Browsers clip the final element of a base not ending in "/".
	if strings.HasSuffix(base, "/") {
		return base
	}
	return base + "/"
}
