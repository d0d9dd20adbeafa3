// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package client

import (
	"fmt"

	"github.com/ciathefed/lud/lib/protocol"
)

// List implements the client side of spec.md §4.F List, returning the
// entries the server resolved beneath remotePath. Rendering is left to
// the caller (lib/listprint).
func List(addr, remotePath string) ([]protocol.FileEntry, error) {
	var entries []protocol.FileEntry

	err := withConnection(addr, func(wire *protocol.Conn) error {
		if err := wire.WritePacket(protocol.ListPacket{Path: remotePath}); err != nil {
			return fmt.Errorf("client: send list request: %w", err)
		}

		resp, err := wire.ReadPacket()
		if err != nil {
			return fmt.Errorf("client: read list response: %w", err)
		}

		switch p := resp.(type) {
		case protocol.ListPacket:
			entries = p.Entries
		case protocol.ErrorPacket:
			return &RemoteError{Message: p.Message}
		default:
			return &UnexpectedPacketError{Kind: resp.Kind()}
		}

		return expectOk(wire)
	})

	return entries, err
}
