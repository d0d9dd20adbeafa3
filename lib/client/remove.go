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

// Remove implements the client side of spec.md §4.F Remove.
func Remove(addr, remotePath string, force, recursive bool) error {
	return withConnection(addr, func(wire *protocol.Conn) error {
		if err := wire.WritePacket(protocol.RemovePacket{
			Path:      remotePath,
			Force:     force,
			Recursive: recursive,
		}); err != nil {
			return fmt.Errorf("client: send remove request: %w", err)
		}

		return expectOk(wire)
	})
}
