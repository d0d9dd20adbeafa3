// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package protocol

import (
	"encoding/binary"
	"io"
)

// MaxFrameSize caps a single frame's payload length. Chunks are sent at a
// small fraction of this (64 KiB server-side, 16 KiB-1 MiB client-side);
// the cap exists purely to stop a corrupt length prefix from causing an
// enormous allocation.
const MaxFrameSize = 64 * 1024 * 1024

// FramingError is returned for a short read, an oversize frame, or a
// payload that fails to deserialize. It is always fatal to the connection.
type FramingError struct {
	Reason string
	Err    error
}

func (e *FramingError) Error() string {
	if e.Err != nil {
		return "framing: " + e.Reason + ": " + e.Err.Error()
	}
	return "framing: " + e.Reason
}

func (e *FramingError) Unwrap() error { return e.Err }

// Conn is a single-reader/single-writer length-prefixed packet stream over
// an underlying byte stream. It is never safe to share across goroutines.
type Conn struct {
	rw io.ReadWriter
}

// NewConn wraps rw (typically a net.Conn) in the packet framing codec.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{rw: rw}
}

// WritePacket serializes p and writes it as one frame: a 4-byte big-endian
// length prefix followed by exactly that many payload bytes.
func (c *Conn) WritePacket(p Packet) error {
	payload, err := encodePacket(p)
	if err != nil {
		return &FramingError{Reason: "encode packet", Err: err}
	}
	if len(payload) > MaxFrameSize {
		return &FramingError{Reason: "payload exceeds max frame size"}
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := c.rw.Write(lenBuf[:]); err != nil {
		return &FramingError{Reason: "write length prefix", Err: err}
	}
	if len(payload) > 0 {
		if _, err := c.rw.Write(payload); err != nil {
			return &FramingError{Reason: "write payload", Err: err}
		}
	}
	return nil
}

// ReadPacket reads exactly one frame and deserializes its payload.
func (c *Conn) ReadPacket() (Packet, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(c.rw, lenBuf[:]); err != nil {
		return nil, &FramingError{Reason: "read length prefix", Err: err}
	}

	length := binary.BigEndian.Uint32(lenBuf[:])
	if length > MaxFrameSize {
		return nil, &FramingError{Reason: "frame exceeds max frame size"}
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(c.rw, payload); err != nil {
			return nil, &FramingError{Reason: "read payload", Err: err}
		}
	}

	p, err := decodePacket(payload)
	if err != nil {
		return nil, &FramingError{Reason: "decode payload", Err: err}
	}
	return p, nil
}
