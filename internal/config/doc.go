// Package config loads, validates and watches the gateway configuration.
//
// The configuration is a YAML document in the usual apiVersion/kind/
// metadata/spec shape. ${VAR} and ${VAR:-default} references are
// substituted from the environment before parsing; "$$" yields a literal
// dollar sign.
//
// Route definitions live under spec.routes and are compiled into routes
// by package routedef. The Watcher turns edits of the file into refresh
// triggers for the route cache.
package config
