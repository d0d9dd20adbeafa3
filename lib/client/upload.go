// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package client

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/time/rate"

	"github.com/ciathefed/lud/lib/protocol"
	"github.com/ciathefed/lud/lib/transfer"
)

// UploadOptions configures Upload beyond the wire contract.
type UploadOptions struct {
	// LocalPath is the source file on disk.
	LocalPath string
	// Force allows the server to overwrite an existing remote file.
	Force bool
	// OnProgress, if set, is called after every chunk is sent.
	OnProgress ProgressFunc
	// RateLimitBytesPerSec paces chunk reads/sends. Zero means unlimited.
	RateLimitBytesPerSec float64
}

// Upload implements the client side of spec.md §4.F Upload: it stats the
// local file, announces it, then streams it in size-scaled chunks chosen
// once per transfer by transfer.UploadChunkSize.
func Upload(addr, remotePath string, opts UploadOptions) error {
	f, err := os.Open(opts.LocalPath)
	if err != nil {
		return fmt.Errorf("client: open %s: %w", opts.LocalPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("client: stat %s: %w", opts.LocalPath, err)
	}
	size := uint64(info.Size())

	return withConnection(addr, func(wire *protocol.Conn) error {
		if err := wire.WritePacket(protocol.UploadStartPacket{
			Path:  remotePath,
			Size:  size,
			Mode:  localMode(info),
			Force: opts.Force,
		}); err != nil {
			return fmt.Errorf("client: send upload request: %w", err)
		}

		if err := expectOk(wire); err != nil {
			return err
		}

		var limiter *rate.Limiter
		if opts.RateLimitBytesPerSec > 0 {
			limiter = rate.NewLimiter(rate.Limit(opts.RateLimitBytesPerSec), int(opts.RateLimitBytesPerSec))
		}

		chunkSize := transfer.UploadChunkSize(size)
		buf := make([]byte, chunkSize)
		var sent uint64
		for {
			n, readErr := f.Read(buf)
			if n > 0 {
				if limiter != nil {
					_ = limiter.WaitN(context.Background(), n)
				}
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				if err := wire.WritePacket(protocol.UploadChunkPacket{Bytes: chunk}); err != nil {
					return fmt.Errorf("client: send upload chunk: %w", err)
				}
				sent += uint64(n)
				if opts.OnProgress != nil {
					opts.OnProgress(sent, size)
				}
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				return fmt.Errorf("client: read %s: %w", opts.LocalPath, readErr)
			}
		}

		if err := wire.WritePacket(protocol.UploadEndPacket{}); err != nil {
			return fmt.Errorf("client: send upload end: %w", err)
		}

		return expectOk(wire)
	})
}
