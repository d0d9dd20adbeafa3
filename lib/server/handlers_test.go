// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package server

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciathefed/lud/lib/metrics"
	"github.com/ciathefed/lud/lib/protocol"
)

// newTestConnection wires a connection to one end of a net.Pipe, backed
// by a fresh Dispatcher rooted at a temp directory, and returns the other
// end's protocol.Conn for the test to drive as the peer.
func newTestConnection(t *testing.T) (*connection, *protocol.Conn, string) {
	t.Helper()

	root := t.TempDir()
	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() { _ = serverSide.Close(); _ = clientSide.Close() })

	d := &Dispatcher{StorageRoot: root}
	d.metrics = metrics.NewRegistry()

	log := logrus.NewEntry(logrus.New())
	c := newConnection(serverSide, log, d, nil)

	return c, protocol.NewConn(clientSide), root
}

func TestHandlePing(t *testing.T) {
	c, peer, _ := newTestConnection(t)

	go c.serve()

	require.NoError(t, peer.WritePacket(protocol.PingPacket{}))
	resp, err := peer.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, protocol.OkPacket{}, resp)
}

func TestHandleDownloadRoundTrip(t *testing.T) {
	c, peer, root := newTestConnection(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	content := make([]byte, 200*1024)
	for i := range content {
		content[i] = 0xAB
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "a.bin"), content, 0o644))

	go c.serve()

	require.NoError(t, peer.WritePacket(protocol.DownloadStartPacket{Path: "sub/a.bin"}))

	start, err := peer.ReadPacket()
	require.NoError(t, err)
	header, ok := start.(protocol.DownloadStartPacket)
	require.True(t, ok)
	assert.Equal(t, uint64(len(content)), header.Size)

	var received []byte
	for {
		pkt, err := peer.ReadPacket()
		require.NoError(t, err)
		if _, ok := pkt.(protocol.DownloadEndPacket); ok {
			break
		}
		chunk, ok := pkt.(protocol.DownloadChunkPacket)
		require.True(t, ok)
		received = append(received, chunk.Bytes...)
	}

	assert.Equal(t, content, received)

	final, err := peer.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, protocol.OkPacket{}, final)
}

func TestHandleDownloadInvalidPath(t *testing.T) {
	c, peer, _ := newTestConnection(t)

	go c.serve()

	require.NoError(t, peer.WritePacket(protocol.DownloadStartPacket{Path: "../../etc/passwd"}))

	resp, err := peer.ReadPacket()
	require.NoError(t, err)
	errPkt, ok := resp.(protocol.ErrorPacket)
	require.True(t, ok)
	assert.Equal(t, "Invalid file path", errPkt.Message)
}

func TestHandleUploadThenRefusesOverwrite(t *testing.T) {
	c, peer, root := newTestConnection(t)

	go c.serve()

	body := make([]byte, 1024)
	for i := range body {
		body[i] = 0xCD
	}

	require.NoError(t, peer.WritePacket(protocol.UploadStartPacket{Path: "sub/a.bin", Size: uint64(len(body)), Mode: 0o644, Force: false}))
	ready, err := peer.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, protocol.OkPacket{}, ready)

	require.NoError(t, peer.WritePacket(protocol.UploadChunkPacket{Bytes: body}))
	require.NoError(t, peer.WritePacket(protocol.UploadEndPacket{}))

	final, err := peer.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, protocol.OkPacket{}, final)

	onDisk, err := os.ReadFile(filepath.Join(root, "sub", "a.bin"))
	require.NoError(t, err)
	assert.Equal(t, body, onDisk)

	// Second connection, same path, force=false.
	c2, peer2, _ := newTestConnectionOnRoot(t, root)
	go c2.serve()

	require.NoError(t, peer2.WritePacket(protocol.UploadStartPacket{Path: "sub/a.bin", Size: 4, Mode: 0o644, Force: false}))
	ready2, err := peer2.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, protocol.OkPacket{}, ready2)

	resp, err := peer2.ReadPacket()
	require.NoError(t, err)
	errPkt, ok := resp.(protocol.ErrorPacket)
	require.True(t, ok)
	assert.Equal(t, "File already exists", errPkt.Message)

	unchanged, err := os.ReadFile(filepath.Join(root, "sub", "a.bin"))
	require.NoError(t, err)
	assert.Equal(t, body, unchanged)
}

func newTestConnectionOnRoot(t *testing.T, root string) (*connection, *protocol.Conn) {
	t.Helper()

	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() { _ = serverSide.Close(); _ = clientSide.Close() })

	d := &Dispatcher{StorageRoot: root}
	d.metrics = metrics.NewRegistry()

	log := logrus.NewEntry(logrus.New())
	c := newConnection(serverSide, log, d, nil)

	return c, protocol.NewConn(clientSide)
}

func TestHandleUploadSizeMismatch(t *testing.T) {
	c, peer, root := newTestConnection(t)

	go c.serve()

	require.NoError(t, peer.WritePacket(protocol.UploadStartPacket{Path: "x", Size: 100, Mode: 0o644, Force: true}))
	ready, err := peer.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, protocol.OkPacket{}, ready)

	require.NoError(t, peer.WritePacket(protocol.UploadChunkPacket{Bytes: make([]byte, 50)}))
	require.NoError(t, peer.WritePacket(protocol.UploadEndPacket{}))

	resp, err := peer.ReadPacket()
	require.NoError(t, err)
	errPkt, ok := resp.(protocol.ErrorPacket)
	require.True(t, ok)
	assert.Equal(t, "File size mismatch", errPkt.Message)

	_, statErr := os.Stat(filepath.Join(root, "x"))
	assert.NoError(t, statErr)
}

func TestHandleListEmptySubtree(t *testing.T) {
	c, peer, root := newTestConnection(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	go c.serve()

	require.NoError(t, peer.WritePacket(protocol.ListPacket{Path: "empty"}))

	resp, err := peer.ReadPacket()
	require.NoError(t, err)
	listing, ok := resp.(protocol.ListPacket)
	require.True(t, ok)
	assert.Empty(t, listing.Entries)

	final, err := peer.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, protocol.OkPacket{}, final)
}

func TestHandleListReturnsRelativePaths(t *testing.T) {
	c, peer, root := newTestConnection(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "b", "f.txt"), []byte("hello"), 0o644))

	go c.serve()

	require.NoError(t, peer.WritePacket(protocol.ListPacket{Path: ""}))

	resp, err := peer.ReadPacket()
	require.NoError(t, err)
	listing, ok := resp.(protocol.ListPacket)
	require.True(t, ok)
	require.Len(t, listing.Entries, 1)
	assert.Equal(t, "a/b/f.txt", listing.Entries[0].Path)
	assert.Equal(t, uint64(5), listing.Entries[0].Size)

	final, err := peer.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, protocol.OkPacket{}, final)
}

func TestHandleRemoveForceIdempotent(t *testing.T) {
	c, peer, _ := newTestConnection(t)

	go c.serve()

	require.NoError(t, peer.WritePacket(protocol.RemovePacket{Path: "missing", Force: true}))

	resp, err := peer.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, protocol.OkPacket{}, resp)
}

func TestHandleRemoveNonexistentWithoutForce(t *testing.T) {
	c, peer, _ := newTestConnection(t)

	go c.serve()

	require.NoError(t, peer.WritePacket(protocol.RemovePacket{Path: "missing", Force: false}))

	resp, err := peer.ReadPacket()
	require.NoError(t, err)
	errPkt, ok := resp.(protocol.ErrorPacket)
	require.True(t, ok)
	assert.Equal(t, "Path does not exist", errPkt.Message)
}

func TestHandleRemoveDirectoryNotEmpty(t *testing.T) {
	c, peer, root := newTestConnection(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "d"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "d", "f"), []byte("x"), 0o644))

	go c.serve()

	require.NoError(t, peer.WritePacket(protocol.RemovePacket{Path: "d", Force: false, Recursive: false}))

	resp, err := peer.ReadPacket()
	require.NoError(t, err)
	errPkt, ok := resp.(protocol.ErrorPacket)
	require.True(t, ok)
	assert.Equal(t, "Directory not empty (use recursive flag)", errPkt.Message)
}

func TestHandleRemoveRecursive(t *testing.T) {
	c, peer, root := newTestConnection(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "d"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "d", "f"), []byte("x"), 0o644))

	go c.serve()

	require.NoError(t, peer.WritePacket(protocol.RemovePacket{Path: "d", Force: false, Recursive: true}))

	resp, err := peer.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, protocol.OkPacket{}, resp)

	_, statErr := os.Stat(filepath.Join(root, "d"))
	assert.True(t, os.IsNotExist(statErr))
}
