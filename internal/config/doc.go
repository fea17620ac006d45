// Package config defines tool settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the remote endpoint URLs and per-step timeouts.
// All fields have compiled-in defaults pointing at NVIDIA's public download
// endpoints, so the settings file is optional.
package config
