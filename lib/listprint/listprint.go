// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

// Package listprint renders a List response as a human-readable table.
// It is the Go counterpart of the external "ls table formatter"
// collaborator named in spec.md §1, supplemented here so the CLI is
// runnable end to end.
package listprint

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/ciathefed/lud/lib/protocol"
)

// Print writes entries to w as a two-column, tab-aligned table sorted by
// ascending size, matching the original implementation's ordering.
func Print(w io.Writer, entries []protocol.FileEntry, isTTY bool) error {
	sorted := make([]protocol.FileEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Size < sorted[j].Size })

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := "File Path\tSize"
	if isTTY {
		header = "\x1b[1m" + header + "\x1b[0m"
	}
	if _, err := fmt.Fprintln(tw, header); err != nil {
		return err
	}

	for _, e := range sorted {
		line := fmt.Sprintf("%s\t%s", e.Path, humanize.Bytes(e.Size))
		if isTTY {
			line = "\x1b[0m" + line + "\x1b[0m"
		}
		if _, err := fmt.Fprintln(tw, line); err != nil {
			return err
		}
	}

	return tw.Flush()
}

// IsTerminal reports whether fd is attached to an interactive terminal,
// used to decide whether to emit the bold-header/reset ANSI sequences.
func IsTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}
