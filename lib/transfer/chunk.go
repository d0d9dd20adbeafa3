// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

// Package transfer holds the size and naming heuristics shared by the
// client's download and upload loops.
package transfer

import (
	"math"
	"path"
	"time"
)

// DownloadChunkSize is the server's fixed chunk size for download bodies.
// It is an implementation detail the client must not assume: any chunk
// size on the wire is acceptable.
const DownloadChunkSize = 64 * 1024

const (
	minUploadChunkSize = 16 * 1024
	maxUploadChunkSize = 1024 * 1024
)

// UploadChunkSize picks the client's upload chunk size for a file of the
// given size: clamp(log2(size) * 1024, 16 KiB, 1 MiB), evaluated once per
// transfer. It is a pure function of size so it is deterministic and
// trivially testable without touching the clock.
func UploadChunkSize(size uint64) int {
	if size == 0 {
		return minUploadChunkSize
	}

	scaled := math.Log2(float64(size)) * 1024
	if scaled < minUploadChunkSize {
		return minUploadChunkSize
	}
	if scaled > maxUploadChunkSize {
		return maxUploadChunkSize
	}
	return int(scaled)
}

// DefaultFilename returns the basename of counterpart, or, if it has none
// (it is empty, ".", or "/"), a UTC-timestamped placeholder name. Trailing
// slashes are ignored, so "sub/" yields "sub".
func DefaultFilename(counterpart string, now time.Time) string {
	base := path.Base(counterpart)
	if base != "" && base != "." && base != "/" {
		return base
	}
	return now.UTC().Format("2006-01-02T15-04-05") + "-output"
}
