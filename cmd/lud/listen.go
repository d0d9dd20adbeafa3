// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ciathefed/lud/lib/logging"
	"github.com/ciathefed/lud/lib/server"
)

type listenCmd struct {
	Addr           string  `short:"a" default:"127.0.0.1:4899" help:"Address to listen on."`
	StorageRoot    string  `short:"s" arg:"" help:"Directory to serve."`
	MaxConnections int64   `help:"Maximum concurrent connections (0 = unbounded)."`
	RateLimit      float64 `help:"Per-connection bandwidth cap in bytes/sec (0 = unlimited)."`
	MetricsAddr    string  `help:"Address to serve Prometheus metrics on (empty disables it)."`
}

func (cmd *listenCmd) Run(*cli) error {
	d := &server.Dispatcher{
		StorageRoot:          cmd.StorageRoot,
		MaxConnections:       cmd.MaxConnections,
		RateLimitBytesPerSec: cmd.RateLimit,
		MetricsAddr:          cmd.MetricsAddr,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logging.L.WithField("root", cmd.StorageRoot).WithField("addr", cmd.Addr).Info("starting lud server")
	return d.Start(ctx, cmd.Addr)
}
