// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package server

import (
	"net"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ciathefed/lud/lib/protocol"
)

// connection is the per-task state for one accepted socket: AwaitRequest
// -> Handling(op) -> Done, never shared with another task.
type connection struct {
	net     net.Conn
	wire    *protocol.Conn
	log     *logrus.Entry
	d       *Dispatcher
	limiter *rate.Limiter
}

func newConnection(netConn net.Conn, log *logrus.Entry, d *Dispatcher, limiter *rate.Limiter) *connection {
	return &connection{
		net:     netConn,
		wire:    protocol.NewConn(netConn),
		log:     log,
		d:       d,
		limiter: limiter,
	}
}

func (c *connection) shutdown(log *logrus.Entry) {
	_ = c.net.Close()
	log.Debug("connection closed")
}

func (c *connection) sendOk() {
	if err := c.wire.WritePacket(protocol.OkPacket{}); err != nil {
		c.log.WithError(err).Error("failed to send Ok packet")
	}
}

func (c *connection) sendError(msg string) {
	if err := c.wire.WritePacket(protocol.ErrorPacket{Message: msg}); err != nil {
		c.log.WithError(err).Error("failed to send Error packet")
	}
}

// serve reads exactly one request packet and dispatches it, per spec.md
// §4.D. Every handler failure is local: logged here, surfaced to the peer
// as best-effort, never propagated past this call.
func (c *connection) serve() {
	req, err := c.wire.ReadPacket()
	if err != nil {
		c.sendError("Failed to read packet")
		c.log.WithError(err).Warn("failed to read request packet")
		return
	}

	op := req.Kind().String()
	done := c.d.metrics.ConnectionStarted(op)
	defer done()

	switch p := req.(type) {
	case protocol.DownloadStartPacket:
		if err := c.handleDownload(p.Path); err != nil {
			c.log.WithError(err).Warn("download failed")
			return
		}
		c.sendOk()

	case protocol.UploadStartPacket:
		if err := c.handleUpload(p); err != nil {
			c.log.WithError(err).Warn("upload failed")
			return
		}
		c.sendOk()

	case protocol.ListPacket:
		if err := c.handleList(p.Path); err != nil {
			c.log.WithError(err).Warn("list failed")
			return
		}
		c.sendOk()

	case protocol.RemovePacket:
		if err := c.handleRemove(p); err != nil {
			c.log.WithError(err).Warn("remove failed")
			return
		}

	case protocol.PingPacket:
		c.sendOk()

	default:
		c.sendError("Unsupported packet")
		c.log.Warnf("unsupported request packet kind %s", op)
	}

	c.log.Debugf("handled %s", op)
}
