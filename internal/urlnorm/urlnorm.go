// Package urlnorm rewrites article URLs into a single canonical form so that
// equivalent links share one cache identity.
package urlnorm

import (
	"net"
	"net/url"
	"sort"
	"strings"
)

// trackingParams are dropped in addition to every utm_* parameter.
var trackingParams = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"mc_cid":  {},
	"mc_eid":  {},
	"ref":     {},
	"ref_src": {},
	"s":       {},
	"cmpid":   {},
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

type param struct {
	key, value string
	// bare keys such as "?flag" keep their "="-less form
	hasValue bool
}

// Normalize returns the canonical form of rawURL: lowercase host without a
// leading "www.", no fragment, no tracking parameters, remaining parameters
// sorted by name then value, and no trailing slash unless the path is "/".
// Input that cannot be parsed as an absolute URL is returned unchanged.
func Normalize(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}

	u.Host = normalizeHost(u.Scheme, u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.RawQuery = encodeParams(filterParams(splitQuery(u.RawQuery)))
	u.ForceQuery = false

	normalizePath(u)

	return u.String()
}

// normalizePath trims trailing slashes on the escaped form so an encoded
// "%2F" stays part of its segment.
func normalizePath(u *url.URL) {
	escaped := u.EscapedPath()
	if escaped == "" {
		u.Path, u.RawPath = "/", ""
		return
	}
	if escaped == "/" || !strings.HasSuffix(escaped, "/") {
		return
	}

	escaped = strings.TrimRight(escaped, "/")
	if escaped == "" {
		u.Path, u.RawPath = "/", ""
		return
	}
	path, err := url.PathUnescape(escaped)
	if err != nil {
		return
	}
	u.Path, u.RawPath = path, escaped
}

func normalizeHost(scheme, host string) string {
	host = strings.ToLower(host)

	hostname, port, err := net.SplitHostPort(host)
	if err != nil {
		return strings.TrimPrefix(host, "www.")
	}
	hostname = strings.TrimPrefix(hostname, "www.")

	if defaultPorts[scheme] == port {
		if strings.Contains(hostname, ":") {
			return "[" + hostname + "]"
		}
		return hostname
	}
	return net.JoinHostPort(hostname, port)
}

func splitQuery(raw string) []param {
	if raw == "" {
		return nil
	}

	var params []param
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		key, value, hasValue := strings.Cut(part, "=")
		params = append(params, param{key: unescape(key), value: unescape(value), hasValue: hasValue})
	}
	return params
}

func unescape(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return s
}

func filterParams(params []param) []param {
	kept := params[:0]
	for _, p := range params {
		if isTracking(p.key) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func isTracking(key string) bool {
	key = strings.ToLower(key)
	if strings.HasPrefix(key, "utm_") {
		return true
	}
	_, ok := trackingParams[key]
	return ok
}

func encodeParams(params []param) string {
	if len(params) == 0 {
		return ""
	}

	sort.SliceStable(params, func(i, j int) bool {
		if params[i].key != params[j].key {
			return params[i].key < params[j].key
		}
		if params[i].value != params[j].value {
			return params[i].value < params[j].value
		}
		return !params[i].hasValue && params[j].hasValue
	})

	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		if !p.hasValue {
			continue
		}
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}
