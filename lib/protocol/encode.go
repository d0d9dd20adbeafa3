// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// writer serializes fields in declared order: a tag byte, then fixed-width
// integers and length-prefixed (64-bit little-endian) strings/byte vectors.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) putUint8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *writer) putUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) putUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) putBool(v bool) {
	if v {
		w.putUint8(1)
	} else {
		w.putUint8(0)
	}
}

func (w *writer) putBytes(v []byte) {
	w.putUint64(uint64(len(v)))
	w.buf.Write(v)
}

func (w *writer) putString(v string) {
	w.putBytes([]byte(v))
}

func (w *writer) putFileEntries(entries []FileEntry) {
	w.putUint64(uint64(len(entries)))
	for _, e := range entries {
		w.putString(e.Path)
		w.putUint64(e.Size)
	}
}

// encodePacket serializes p to its self-describing payload (tag + fields),
// not including the 4-byte frame length prefix.
func encodePacket(p Packet) ([]byte, error) {
	w := &writer{}
	w.putUint8(uint8(p.Kind()))

	switch pk := p.(type) {
	case OkPacket:
	case ErrorPacket:
		w.putString(pk.Message)
	case DownloadStartPacket:
		w.putString(pk.Path)
		w.putUint64(pk.Size)
		w.putUint32(pk.Mode)
	case DownloadChunkPacket:
		w.putBytes(pk.Bytes)
	case DownloadEndPacket:
	case UploadStartPacket:
		w.putString(pk.Path)
		w.putUint64(pk.Size)
		w.putUint32(pk.Mode)
		w.putBool(pk.Force)
	case UploadChunkPacket:
		w.putBytes(pk.Bytes)
	case UploadEndPacket:
	case ListPacket:
		w.putString(pk.Path)
		w.putFileEntries(pk.Entries)
	case RemovePacket:
		w.putString(pk.Path)
		w.putBool(pk.Force)
		w.putBool(pk.Recursive)
	case PingPacket:
	default:
		return nil, fmt.Errorf("protocol: unknown packet type %T", p)
	}

	return w.buf.Bytes(), nil
}
