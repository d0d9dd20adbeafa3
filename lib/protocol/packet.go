// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

// Package protocol defines the wire packets exchanged between a lud client
// and server, and the framing codec used to move them over a byte stream.
package protocol

// Kind is the wire discriminator for a Packet. The ordering below is part
// of the wire format: new variants must be appended at the end, never
// inserted or reordered.
type Kind uint8

const (
	KindOk Kind = iota
	KindError
	KindDownloadStart
	KindDownloadChunk
	KindDownloadEnd
	KindUploadStart
	KindUploadChunk
	KindUploadEnd
	KindList
	KindRemove
	KindPing
)

func (k Kind) String() string {
	switch k {
	case KindOk:
		return "Ok"
	case KindError:
		return "Error"
	case KindDownloadStart:
		return "DownloadStart"
	case KindDownloadChunk:
		return "DownloadChunk"
	case KindDownloadEnd:
		return "DownloadEnd"
	case KindUploadStart:
		return "UploadStart"
	case KindUploadChunk:
		return "UploadChunk"
	case KindUploadEnd:
		return "UploadEnd"
	case KindList:
		return "List"
	case KindRemove:
		return "Remove"
	case KindPing:
		return "Ping"
	default:
		return "Unknown"
	}
}

// Packet is the closed sum of messages the protocol can carry. The
// dispatch in lib/server and lib/client is an exhaustive type switch over
// the concrete types below.
type Packet interface {
	Kind() Kind
}

// OkPacket is a generic success acknowledgement.
type OkPacket struct{}

func (OkPacket) Kind() Kind { return KindOk }

// ErrorPacket carries a human-readable failure reason.
type ErrorPacket struct {
	Message string
}

func (ErrorPacket) Kind() Kind { return KindError }

// DownloadStartPacket is sent by the client as a request (Size and Mode are
// ignored and should be zero) and by the server as a response header
// announcing the stream that follows.
type DownloadStartPacket struct {
	Path string
	Size uint64
	Mode uint32
}

func (DownloadStartPacket) Kind() Kind { return KindDownloadStart }

// DownloadChunkPacket carries one fragment of a download body.
type DownloadChunkPacket struct {
	Bytes []byte
}

func (DownloadChunkPacket) Kind() Kind { return KindDownloadChunk }

// DownloadEndPacket marks the end of a download body.
type DownloadEndPacket struct{}

func (DownloadEndPacket) Kind() Kind { return KindDownloadEnd }

// UploadStartPacket is a client-sent header announcing an upload.
type UploadStartPacket struct {
	Path  string
	Size  uint64
	Mode  uint32
	Force bool
}

func (UploadStartPacket) Kind() Kind { return KindUploadStart }

// UploadChunkPacket carries one fragment of an upload body.
type UploadChunkPacket struct {
	Bytes []byte
}

func (UploadChunkPacket) Kind() Kind { return KindUploadChunk }

// UploadEndPacket marks the end of an upload body.
type UploadEndPacket struct{}

func (UploadEndPacket) Kind() Kind { return KindUploadEnd }

// FileEntry is one non-directory entry in a List response, path relative
// to the server's storage root.
type FileEntry struct {
	Path string
	Size uint64
}

// ListPacket carries the requested path (request) or the requested path
// plus resolved entries (response).
type ListPacket struct {
	Path    string
	Entries []FileEntry
}

func (ListPacket) Kind() Kind { return KindList }

// RemovePacket is a request to delete path, optionally ignoring a missing
// target (Force) and optionally recursing into directories (Recursive).
type RemovePacket struct {
	Path      string
	Force     bool
	Recursive bool
}

func (RemovePacket) Kind() Kind { return KindRemove }

// PingPacket is a liveness check request.
type PingPacket struct{}

func (PingPacket) Kind() Kind { return KindPing }
