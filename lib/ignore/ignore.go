// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

// Package ignore applies a .ludignore glob pattern list to List results,
// mirroring the teacher's own per-folder ignore files.
package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// FileName is the ignore file's name at the root of the storage tree.
const FileName = ".ludignore"

// Matcher holds the compiled pattern list. A nil *Matcher (or one loaded
// from an absent file) matches nothing, so List behavior is unchanged
// when no ignore file exists.
type Matcher struct {
	patterns []glob.Glob
}

// Load reads FileName from storageRoot, one glob pattern per line. Blank
// lines and lines starting with '#' are skipped. A missing file yields an
// empty, always-non-matching Matcher rather than an error.
func Load(storageRoot string) (*Matcher, error) {
	f, err := os.Open(filepath.Join(storageRoot, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &Matcher{}, nil
		}
		return nil, fmt.Errorf("ignore: reading %s: %w", FileName, err)
	}
	defer f.Close()

	m := &Matcher{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		g, err := glob.Compile(line, '/')
		if err != nil {
			return nil, fmt.Errorf("ignore: pattern %q: %w", line, err)
		}
		m.patterns = append(m.patterns, g)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ignore: reading %s: %w", FileName, err)
	}

	return m, nil
}

// Match reports whether relativePath (slash-separated, relative to the
// storage root) matches any loaded pattern.
func (m *Matcher) Match(relativePath string) bool {
	if m == nil {
		return false
	}
	for _, g := range m.patterns {
		if g.Match(relativePath) {
			return true
		}
	}
	return false
}
