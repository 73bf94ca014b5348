// Package internal contains the implementation packages for facet.
//
// # Package Organization
//
//   - markup: minimal HTML fragments, attribute merging and style shorthands
//   - environment: the hierarchical key/value environment views read
//   - localization: resource bundles and BCP 47 language negotiation
//   - request: canonical, cache-keyable representations of requests
//   - view: the declarative view tree, modifiers and the asset registry
//   - site: the destination tree, page rendering, URLs and the sitemap
//   - cache: the sharded, byte-bounded response cache
//   - assets: static files with content detection and minification
//   - watcher: debounced file watching that reloads assets
//   - server: HTTP serving over net/http or gin
//   - config: viper-backed configuration and memory probing
//   - errors, logging, version: ambient support
//   - demo: the sample site the CLI serves
//
// # Request Flow
//
// A request is canonicalized into a request.ProcessedRequest, negotiated to
// one of the site's languages, resolved against the destination tree and
// looked up in the cache. On a miss the page's view is rendered into markup
// once, no matter how many requests are waiting for it.
package internal
