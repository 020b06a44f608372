package main

import (
	"fmt"
	"os"

	"github.com/erwinkn/pulse-ui-sub000/pkg/router"
	"gopkg.in/yaml.v3"
)

// routeFile is the on-disk shape a pulsec routes command reads: a plain
// YAML mirror of the []*router.Route tree spec §4.8 describes, since the
// server owns the real route tree and this devtool only needs to replay
// it offline. Modeled on pkg/config.Config's YAML-over-JSON convention.
type routeFile struct {
	Routes []routeNode `yaml:"routes"`
}

type routeNode struct {
	Path     string      `yaml:"path"`
	Index    bool        `yaml:"index"`
	Children []routeNode `yaml:"children"`
}

func (n routeNode) toRoute() *router.Route {
	r := &router.Route{Path: n.Path, Index: n.Index}
	for _, c := range n.Children {
		r.Children = append(r.Children, c.toRoute())
	}
	return r
}

// loadRoutes reads path as a routeFile and compiles it into a validated
// []*router.Route tree, ready for router.SelectBestMatch.
func loadRoutes(path string) ([]*router.Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pulsec: read %s: %w", path, err)
	}
	var rf routeFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("pulsec: parse %s: %w", path, err)
	}
	routes := make([]*router.Route, len(rf.Routes))
	for i, n := range rf.Routes {
		routes[i] = n.toRoute()
	}
	for _, r := range routes {
		if err := router.CompileTree(r); err != nil {
			return nil, fmt.Errorf("pulsec: compile %s: %w", path, err)
		}
	}
	if errs := router.Validate(routes); len(errs) > 0 {
		return nil, fmt.Errorf("pulsec: %s has %d validation error(s), first: %w", path, len(errs), errs[0])
	}
	return routes, nil
}
