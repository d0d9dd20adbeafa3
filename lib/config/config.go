// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

// Package config loads the client's named server list, an external
// collaborator to the core protocol: the core only ever receives a
// resolved address string (spec.md §6).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Server is one named endpoint a client can talk to.
type Server struct {
	Name    string `yaml:"name"`
	Addr    string `yaml:"addr"`
	Default bool   `yaml:"default"`
}

// Settings is the top-level config file shape.
type Settings struct {
	Servers []Server `yaml:"servers"`
}

// ErrNoServers is returned when the config file has no servers defined.
var ErrNoServers = errors.New("config: no servers defined")

// ErrAmbiguousServer is returned when neither a default server nor a flag
// picks a unique server out of more than one candidate.
var ErrAmbiguousServer = errors.New("config: more than one server and none marked default; specify -a/--addr")

// SearchPaths returns the config file locations lud checks, in priority
// order: ./lud.yaml, then $XDG_CONFIG_HOME/lud/lud.yaml (or
// $HOME/.config/lud/lud.yaml when XDG_CONFIG_HOME is unset).
func SearchPaths() []string {
	paths := []string{filepath.Join(".", "lud.yaml")}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "lud", "lud.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "lud", "lud.yaml"))
	}

	return paths
}

// Load reads the first existing file among SearchPaths. A missing config
// file is not an error: it yields an empty Settings, which Resolve then
// reports as ErrNoServers if the caller needed a server from it.
func Load() (*Settings, error) {
	for _, path := range SearchPaths() {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}

		var s Settings
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
		return &s, nil
	}

	return &Settings{}, nil
}

// Resolve picks the server to use: the one named explicitly (if name is
// non-empty), else the one marked default, else the sole server, else
// ErrAmbiguousServer.
func (s *Settings) Resolve(name string) (*Server, error) {
	if len(s.Servers) == 0 {
		return nil, ErrNoServers
	}

	if name != "" {
		for i := range s.Servers {
			if s.Servers[i].Name == name {
				return &s.Servers[i], nil
			}
		}
		return nil, fmt.Errorf("config: no server named %q", name)
	}

	for i := range s.Servers {
		if s.Servers[i].Default {
			return &s.Servers[i], nil
		}
	}

	if len(s.Servers) == 1 {
		return &s.Servers[0], nil
	}

	return nil, ErrAmbiguousServer
}
