// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package client

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/time/rate"

	"github.com/ciathefed/lud/lib/protocol"
)

// ProgressFunc is invoked after each chunk is written, with the running
// total and (if known) the final size. Callers that don't want progress
// reporting may pass nil.
type ProgressFunc func(transferred, total uint64)

// DownloadOptions configures Download beyond the wire contract.
type DownloadOptions struct {
	// LocalPath is the destination on disk.
	LocalPath string
	// Force allows overwriting an existing LocalPath.
	Force bool
	// OnProgress, if set, is called after every chunk is written.
	OnProgress ProgressFunc
	// RateLimitBytesPerSec paces chunk writes. Zero means unlimited.
	RateLimitBytesPerSec float64
}

// Download implements the client side of spec.md §4.F Download: it checks
// the local destination before dialing, then streams the remote file into
// it, verifying the received byte count against the server's announced
// size.
func Download(addr, remotePath string, opts DownloadOptions) error {
	if !opts.Force {
		if _, err := os.Stat(opts.LocalPath); err == nil {
			return fmt.Errorf("client: %s already exists (use force to overwrite)", opts.LocalPath)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("client: stat %s: %w", opts.LocalPath, err)
		}
	}

	return withConnection(addr, func(wire *protocol.Conn) error {
		if err := wire.WritePacket(protocol.DownloadStartPacket{Path: remotePath}); err != nil {
			return fmt.Errorf("client: send download request: %w", err)
		}

		header, err := wire.ReadPacket()
		if err != nil {
			return fmt.Errorf("client: read download header: %w", err)
		}
		start, ok := header.(protocol.DownloadStartPacket)
		if !ok {
			if errPkt, isErr := header.(protocol.ErrorPacket); isErr {
				return &RemoteError{Message: errPkt.Message}
			}
			return &UnexpectedPacketError{Kind: header.Kind()}
		}

		f, err := os.OpenFile(opts.LocalPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o666)
		if err != nil {
			return fmt.Errorf("client: create %s: %w", opts.LocalPath, err)
		}
		defer f.Close()

		if err := setLocalMode(f, start.Mode); err != nil {
			return fmt.Errorf("client: chmod %s: %w", opts.LocalPath, err)
		}

		var limiter *rate.Limiter
		if opts.RateLimitBytesPerSec > 0 {
			limiter = rate.NewLimiter(rate.Limit(opts.RateLimitBytesPerSec), int(opts.RateLimitBytesPerSec))
		}

		var received uint64
		for {
			pkt, err := wire.ReadPacket()
			if err != nil {
				return fmt.Errorf("client: read download body: %w", err)
			}

			switch p := pkt.(type) {
			case protocol.DownloadChunkPacket:
				if limiter != nil {
					_ = limiter.WaitN(context.Background(), len(p.Bytes))
				}
				if _, err := f.Write(p.Bytes); err != nil {
					return fmt.Errorf("client: write %s: %w", opts.LocalPath, err)
				}
				received += uint64(len(p.Bytes))
				if opts.OnProgress != nil {
					opts.OnProgress(received, start.Size)
				}
			case protocol.DownloadEndPacket:
				// A terminal Ok may follow; draining it here keeps the
				// connection in a known state before withConnection closes
				// it (spec.md §9 open question).
				if drainErr := drainTrailingOk(wire); drainErr != nil {
					return drainErr
				}
				if received != start.Size {
					return fmt.Errorf("client: downloaded %d bytes, server announced %d", received, start.Size)
				}
				return nil
			case protocol.ErrorPacket:
				return &RemoteError{Message: p.Message}
			default:
				return &UnexpectedPacketError{Kind: pkt.Kind()}
			}
		}
	})
}

// drainTrailingOk consumes the extra Ok the server sends after
// DownloadEnd (spec.md §9 open question). Whatever arrives, or whether
// the peer simply closes the connection, is not itself a transfer
// failure: by this point the whole body has been received, and the caller
// checks its byte count against the announced size after this returns.
func drainTrailingOk(wire *protocol.Conn) error {
	_, _ = wire.ReadPacket()
	return nil
}
