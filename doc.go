/*
Package spaserve serves "Single Page Applications" (SPAs), supporting
client-side DOM routing: request paths whose final segment carries an extension
are served verbatim as static assets, while all other request paths get the SPA's
index document (usually "index.html") instead.

The SPAHandler type implements http.Handler to serve the SPA and its static
resources. The SPAHandler fetches these resources from any resource provider
implementing the fs.FS interface, such as os.DirFS or an embed.FS. Optionally,
the index document's base element can be rewritten to the base path seen by
clients behind path rewriting proxies, so the SPA production code doesn't need
rebuilding when the deployment changes.

The spaserve command in cmd/spaserve wraps SPAHandler into a standalone server.
*/
package spaserve
