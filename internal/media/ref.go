package media

import (
	"net/url"
	"strings"
)

// Ref identifies a remote media resource: either an absolute http(s) URL
// (typically pre-signed storage) or a path under the upload namespace.
type Ref string

// DefaultUploadPrefix is the namespace relative refs live under.
const DefaultUploadPrefix = "uploads"

// IsAbsolute reports whether r is a fully-qualified http or https URL.
func (r Ref) IsAbsolute() bool {
	u, err := url.Parse(strings.TrimSpace(string(r)))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	}
	return false
}

// NormalizePath maps a relative ref onto the upload namespace so that
// "a.png", "/a.png", "uploads/a.png" and "/uploads/a.png" all become
// "/uploads/a.png". Query strings are preserved. An empty ref yields "".
func NormalizePath(prefix, ref string) string {
	rest := strings.TrimLeft(strings.TrimSpace(ref), "/")
	if rest == "" {
		return ""
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return "/" + rest
	}
	if rest == prefix || strings.HasPrefix(rest, prefix+"/") || strings.HasPrefix(rest, prefix+"?") {
		return "/" + rest
	}
	return "/" + prefix + "/" + rest
}
