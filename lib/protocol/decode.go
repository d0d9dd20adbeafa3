// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var errTruncated = errors.New("protocol: truncated payload")

// reader deserializes fields written by writer, bounds-checking every read
// against the remaining payload so a malformed frame fails with an error
// instead of a panic.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, errTruncated
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) getUint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) getUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) getUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) getBool() (bool, error) {
	v, err := r.getUint8()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// maxVectorLen bounds any single length-prefixed string/byte-vector/
// sequence field against the already-bounded frame size, so a corrupt
// length prefix cannot trigger a multi-gigabyte allocation.
const maxVectorLen = MaxFrameSize

func (r *reader) getBytes() ([]byte, error) {
	n, err := r.getUint64()
	if err != nil {
		return nil, err
	}
	if n > maxVectorLen {
		return nil, fmt.Errorf("protocol: vector length %d exceeds frame cap", n)
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (r *reader) getString() (string, error) {
	b, err := r.getBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) getFileEntries() ([]FileEntry, error) {
	n, err := r.getUint64()
	if err != nil {
		return nil, err
	}
	if n > maxVectorLen {
		return nil, fmt.Errorf("protocol: entry count %d exceeds frame cap", n)
	}
	entries := make([]FileEntry, 0, n)
	for i := uint64(0); i < n; i++ {
		path, err := r.getString()
		if err != nil {
			return nil, err
		}
		size, err := r.getUint64()
		if err != nil {
			return nil, err
		}
		entries = append(entries, FileEntry{Path: path, Size: size})
	}
	return entries, nil
}

// decodePacket deserializes a frame payload (as produced by encodePacket)
// back into a Packet.
func decodePacket(payload []byte) (Packet, error) {
	r := &reader{buf: payload}

	tag, err := r.getUint8()
	if err != nil {
		return nil, err
	}

	var p Packet
	switch Kind(tag) {
	case KindOk:
		p = OkPacket{}
	case KindError:
		msg, err := r.getString()
		if err != nil {
			return nil, err
		}
		p = ErrorPacket{Message: msg}
	case KindDownloadStart:
		path, err := r.getString()
		if err != nil {
			return nil, err
		}
		size, err := r.getUint64()
		if err != nil {
			return nil, err
		}
		mode, err := r.getUint32()
		if err != nil {
			return nil, err
		}
		p = DownloadStartPacket{Path: path, Size: size, Mode: mode}
	case KindDownloadChunk:
		data, err := r.getBytes()
		if err != nil {
			return nil, err
		}
		p = DownloadChunkPacket{Bytes: data}
	case KindDownloadEnd:
		p = DownloadEndPacket{}
	case KindUploadStart:
		path, err := r.getString()
		if err != nil {
			return nil, err
		}
		size, err := r.getUint64()
		if err != nil {
			return nil, err
		}
		mode, err := r.getUint32()
		if err != nil {
			return nil, err
		}
		force, err := r.getBool()
		if err != nil {
			return nil, err
		}
		p = UploadStartPacket{Path: path, Size: size, Mode: mode, Force: force}
	case KindUploadChunk:
		data, err := r.getBytes()
		if err != nil {
			return nil, err
		}
		p = UploadChunkPacket{Bytes: data}
	case KindUploadEnd:
		p = UploadEndPacket{}
	case KindList:
		path, err := r.getString()
		if err != nil {
			return nil, err
		}
		entries, err := r.getFileEntries()
		if err != nil {
			return nil, err
		}
		p = ListPacket{Path: path, Entries: entries}
	case KindRemove:
		path, err := r.getString()
		if err != nil {
			return nil, err
		}
		force, err := r.getBool()
		if err != nil {
			return nil, err
		}
		recursive, err := r.getBool()
		if err != nil {
			return nil, err
		}
		p = RemovePacket{Path: path, Force: force, Recursive: recursive}
	case KindPing:
		p = PingPacket{}
	default:
		return nil, fmt.Errorf("protocol: unknown discriminator %d", tag)
	}

	if r.pos != len(r.buf) {
		return nil, fmt.Errorf("protocol: %d trailing bytes after packet", len(r.buf)-r.pos)
	}

	return p, nil
}
