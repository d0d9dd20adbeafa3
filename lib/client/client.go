// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

// Package client implements the dual of lib/server's handlers: one TCP
// connection per operation, speaking the same length-prefixed packet
// protocol from the opposite end.
package client

import (
	"fmt"
	"net"
	"time"

	"github.com/ciathefed/lud/lib/protocol"
)

// RemoteError wraps an Error packet received from the server, converting
// it into a local failure carrying the message verbatim (spec.md §7).
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// UnexpectedPacketError is returned when a flow receives a packet kind it
// cannot handle at that point in its state machine. All client flows
// treat this as fatal for the operation (spec.md §4.F).
type UnexpectedPacketError struct {
	Kind protocol.Kind
}

func (e *UnexpectedPacketError) Error() string {
	return fmt.Sprintf("unexpected packet: %s", e.Kind)
}

// withConnection dials addr, wraps the socket in the wire protocol, and
// runs fn with it, always closing the connection afterward.
func withConnection(addr string, fn func(*protocol.Conn) error) error {
	netConn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("client: dial %s: %w", addr, err)
	}
	defer netConn.Close()

	return fn(protocol.NewConn(netConn))
}

// expectOk reads one packet and requires it to be Ok, converting an Error
// packet into a *RemoteError and anything else into an
// *UnexpectedPacketError.
func expectOk(wire *protocol.Conn) error {
	pkt, err := wire.ReadPacket()
	if err != nil {
		return fmt.Errorf("client: read response: %w", err)
	}
	switch p := pkt.(type) {
	case protocol.OkPacket:
		return nil
	case protocol.ErrorPacket:
		return &RemoteError{Message: p.Message}
	default:
		return &UnexpectedPacketError{Kind: pkt.Kind()}
	}
}
