// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package client

import (
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciathefed/lud/lib/protocol"
)

// fakeServer accepts one connection on a loopback listener and runs fn
// against the wire on the server side of it, returning the listener's
// address for the client under test to dial.
func fakeServer(t *testing.T, fn func(wire *protocol.Conn)) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		fn(protocol.NewConn(conn))
	}()

	return ln.Addr().String()
}

func TestPingMeasuresRoundTrip(t *testing.T) {
	addr := fakeServer(t, func(wire *protocol.Conn) {
		_, _ = wire.ReadPacket()
		_ = wire.WritePacket(protocol.OkPacket{})
	})

	rtt, err := Ping(addr)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rtt.Nanoseconds(), int64(0))
}

func TestPingPropagatesRemoteError(t *testing.T) {
	addr := fakeServer(t, func(wire *protocol.Conn) {
		_, _ = wire.ReadPacket()
		_ = wire.WritePacket(protocol.ErrorPacket{Message: "boom"})
	})

	_, err := Ping(addr)
	require.Error(t, err)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "boom", remoteErr.Message)
}

func TestDownloadRefusesOverwriteWithoutForce(t *testing.T) {
	local := t.TempDir() + "/out.bin"
	require.NoError(t, os.WriteFile(local, []byte("existing"), 0o644))

	err := Download("127.0.0.1:0", "remote.bin", DownloadOptions{LocalPath: local, Force: false})
	require.Error(t, err)
}

func TestDownloadRoundTrip(t *testing.T) {
	body := []byte("hello world, this is the file body")
	addr := fakeServer(t, func(wire *protocol.Conn) {
		req, _ := wire.ReadPacket()
		_, ok := req.(protocol.DownloadStartPacket)
		require.True(t, ok)

		_ = wire.WritePacket(protocol.DownloadStartPacket{Path: "remote.bin", Size: uint64(len(body)), Mode: 0o644})
		_ = wire.WritePacket(protocol.DownloadChunkPacket{Bytes: body[:10]})
		_ = wire.WritePacket(protocol.DownloadChunkPacket{Bytes: body[10:]})
		_ = wire.WritePacket(protocol.DownloadEndPacket{})
		_ = wire.WritePacket(protocol.OkPacket{})
	})

	local := t.TempDir() + "/out.bin"
	var lastTransferred uint64
	err := Download(addr, "remote.bin", DownloadOptions{
		LocalPath: local,
		Force:     true,
		OnProgress: func(transferred, total uint64) {
			lastTransferred = transferred
		},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(len(body)), lastTransferred)

	onDisk, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, body, onDisk)
}

func TestDownloadDetectsSizeMismatch(t *testing.T) {
	addr := fakeServer(t, func(wire *protocol.Conn) {
		_, _ = wire.ReadPacket()
		_ = wire.WritePacket(protocol.DownloadStartPacket{Path: "remote.bin", Size: 100})
		_ = wire.WritePacket(protocol.DownloadChunkPacket{Bytes: []byte("short")})
		_ = wire.WritePacket(protocol.DownloadEndPacket{})
	})

	local := t.TempDir() + "/out.bin"
	err := Download(addr, "remote.bin", DownloadOptions{LocalPath: local, Force: true})
	require.Error(t, err)
}

func TestUploadSendsAnnouncedSizeAndChunks(t *testing.T) {
	body := make([]byte, 5000)
	for i := range body {
		body[i] = byte(i)
	}
	local := t.TempDir() + "/in.bin"
	require.NoError(t, os.WriteFile(local, body, 0o644))

	var received []byte
	var announcedSize uint64
	addr := fakeServer(t, func(wire *protocol.Conn) {
		req, _ := wire.ReadPacket()
		start := req.(protocol.UploadStartPacket)
		announcedSize = start.Size
		_ = wire.WritePacket(protocol.OkPacket{})

		for {
			pkt, _ := wire.ReadPacket()
			switch p := pkt.(type) {
			case protocol.UploadChunkPacket:
				received = append(received, p.Bytes...)
			case protocol.UploadEndPacket:
				_ = wire.WritePacket(protocol.OkPacket{})
				return
			default:
				return
			}
		}
	})

	err := Upload(addr, "remote.bin", UploadOptions{LocalPath: local, Force: true})
	require.NoError(t, err)
	assert.Equal(t, uint64(len(body)), announcedSize)
	assert.Equal(t, body, received)
}

func TestListReturnsEntries(t *testing.T) {
	addr := fakeServer(t, func(wire *protocol.Conn) {
		_, _ = wire.ReadPacket()
		_ = wire.WritePacket(protocol.ListPacket{Entries: []protocol.FileEntry{{Path: "a.txt", Size: 3}}})
		_ = wire.WritePacket(protocol.OkPacket{})
	})

	entries, err := List(addr, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Path)
}

func TestRemovePropagatesError(t *testing.T) {
	addr := fakeServer(t, func(wire *protocol.Conn) {
		_, _ = wire.ReadPacket()
		_ = wire.WritePacket(protocol.ErrorPacket{Message: "Path does not exist"})
	})

	err := Remove(addr, "missing", false, false)
	require.Error(t, err)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "Path does not exist", remoteErr.Message)
}
