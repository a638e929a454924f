package ratelimit

import (
	"net/http"
	"slices"
	"strings"
)

// exempt lists the GET endpoints that are never limited.
var exempt = map[string]bool{"/health": true, "/metrics": true}

// routeTable resolves a request to its endpoint limit. Exact paths are held in
// a map keyed by method and path; paths ending in "/" are prefixes, tried
// longest first.
type routeTable struct {
	exact    map[string]*EndpointConfig
	prefixes []*EndpointConfig
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

func newRouteTable(configs []EndpointConfig) *routeTable {
	t := &routeTable{exact: make(map[string]*EndpointConfig, len(configs))}
	for i := range configs {
		c := &configs[i]
		if strings.HasSuffix(c.Path, "/") {
			t.prefixes = append(t.prefixes, c)
			continue
		}
		if _, dup := t.exact[routeKey(c.Method, c.Path)]; !dup {
			t.exact[routeKey(c.Method, c.Path)] = c
		}
	}
	slices.SortStableFunc(t.prefixes, func(a, b *EndpointConfig) int {
		return len(b.Path) - len(a.Path)
	})
	return t
}

// match returns the limit for one request, a zero-limit config for exempt
// endpoints, or nil when the default applies.
func (t *routeTable) match(path, method string) *EndpointConfig {
	if strings.EqualFold(method, http.MethodGet) && exempt[path] {
		return &EndpointConfig{Path: path, Method: http.MethodGet}
	}
	if c, ok := t.exact[routeKey(method, path)]; ok {
		return c
	}
	for _, c := range t.prefixes {
		if strings.EqualFold(c.Method, method) && strings.HasPrefix(path, c.Path) {
			return c
		}
	}
	return nil
}

// MatchEndpoint resolves path and method against configs. See routeTable.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	return newRouteTable(configs).match(path, method)
}
