// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package client

import (
	"time"

	"github.com/ciathefed/lud/lib/protocol"
)

// Ping sends a liveness check to addr and returns the socket round-trip
// time measured around the request/response exchange.
func Ping(addr string) (time.Duration, error) {
	var rtt time.Duration
	err := withConnection(addr, func(wire *protocol.Conn) error {
		start := time.Now()
		if err := wire.WritePacket(protocol.PingPacket{}); err != nil {
			return err
		}
		if err := expectOk(wire); err != nil {
			return err
		}
		rtt = time.Since(start)
		return nil
	})
	return rtt, err
}
