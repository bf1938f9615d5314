// Package pathfetch implements the path/fetch helpers (spec §4.J):
// RFC 3986 URI resolution with a streaming-assets fallback, and a
// multi-backend byte/text fetch keyed by URI scheme.
package pathfetch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tileflow/streamcore/cmn"
)

// Resolver resolves relative references against an optional base URI,
// falling back to a platform-supplied streaming-assets directory when the
// reference cannot be resolved against base (spec §4.J).
type Resolver struct {
	streamingAssetsBase *url.URL
}

// NewResolver creates a Resolver. streamingAssetsBase is the platform's
// "streaming assets" root (spec §4.J), used when a relative reference has
// no usable base.
func NewResolver(streamingAssetsBase string) (*Resolver, error) {
	u, err := url.Parse(streamingAssetsBase)
	if err != nil {
		return nil, cmn.NewIoError(fmt.Sprintf("invalid streaming-assets base %q", streamingAssetsBase), err)
	}
	return &Resolver{streamingAssetsBase: u}, nil
}

// Resolve produces an absolute URI for ref, resolved against base using
// RFC 3986 reference resolution (stdlib net/url.ResolveReference
// implements this directly; no pack dependency offers anything closer to
// the standard than the standard library itself). If base is nil, ref is
// resolved against the streaming-assets base instead. An absolute ref is
// returned as is; a ref that cannot be parsed is an IoError.
func (r *Resolver) Resolve(ref string, base *url.URL) (*url.URL, error) {
	parsedRef, err := url.Parse(ref)
	if err != nil {
		return nil, cmn.NewIoError(fmt.Sprintf("unparseable URI reference %q", ref), err)
	}
	if parsedRef.IsAbs() {
		return parsedRef, nil
	}
	if base != nil {
		return base.ResolveReference(parsedRef), nil
	}
	return r.streamingAssetsBase.ResolveReference(parsedRef), nil
}

// Scheme returns the lower-cased scheme of u, or "" for a bare path
// (treated as the file backend).
func Scheme(u *url.URL) string {
	return strings.ToLower(u.Scheme)
}

// ListStreamingAssets enumerates every regular file beneath the
// streaming-assets base directory (spec §4.J: "a platform-supplied
// streaming assets base directory"), when that base resolves to a local
// path. A non-file base (e.g. an http(s) streaming-assets root) has
// nothing to walk and yields an empty list.
func (r *Resolver) ListStreamingAssets() ([]string, error) {
	if sch := Scheme(r.streamingAssetsBase); sch != "" && sch != "file" {
		return nil, nil
	}
	root := r.streamingAssetsBase.Path
	if root == "" {
		root = r.streamingAssetsBase.Opaque
	}
	return EnumerateStreamingAssets(root)
}
