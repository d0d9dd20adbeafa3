// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

// Package server implements the lud TCP listener: one independent task per
// accepted connection, dispatching a single request packet to the
// matching handler and never sharing mutable state across connections.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thejerf/suture/v4"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/ciathefed/lud/lib/ignore"
	"github.com/ciathefed/lud/lib/logging"
	"github.com/ciathefed/lud/lib/metrics"
)

// Dispatcher owns the listener and the configuration shared read-only by
// every connection task it spawns.
type Dispatcher struct {
	// StorageRoot is the directory all file operations are sandboxed
	// beneath. Start creates it if absent and replaces it with its
	// canonical absolute form.
	StorageRoot string

	// MaxConnections bounds how many connections are handled at once.
	// Zero means unbounded. The bound is advisory admission control: it
	// never blocks Accept itself, only the point a task would start I/O.
	MaxConnections int64

	// RateLimitBytesPerSec caps per-connection chunk throughput. Zero
	// means unlimited.
	RateLimitBytesPerSec float64

	// MetricsAddr, if non-empty, serves Prometheus metrics over HTTP at
	// this address for as long as Start runs.
	MetricsAddr string

	metrics *metrics.Registry
	sem     *semaphore.Weighted
	ignore  *ignore.Matcher
}

// Start ensures StorageRoot exists, binds addr, and serves connections
// until ctx is cancelled or the bind itself fails. A bind failure is
// returned immediately and is fatal to the caller, matching spec.md's
// "surface fatal error" on listener setup; once bound, transient Accept
// errors are retried under supervision rather than ending the process
// (SPEC_FULL §10).
func (d *Dispatcher) Start(ctx context.Context, addr string) error {
	if err := os.MkdirAll(d.StorageRoot, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("server: create storage root: %w", err)
	}
	root, err := filepath.Abs(d.StorageRoot)
	if err == nil {
		root, err = filepath.EvalSymlinks(root)
	}
	if err != nil {
		return fmt.Errorf("server: resolve storage root: %w", err)
	}
	d.StorageRoot = root

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: bind %s: %w", addr, err)
	}
	defer listener.Close()

	d.metrics = metrics.NewRegistry()
	if d.MaxConnections > 0 {
		d.sem = semaphore.NewWeighted(d.MaxConnections)
	}
	if m, err := ignore.Load(d.StorageRoot); err != nil {
		logging.L.WithError(err).Warn("failed to load ignore file, proceeding without it")
	} else {
		d.ignore = m
	}

	logging.L.WithField("addr", listener.Addr().String()).Info("server started")

	sup := suture.NewSimple("lud-server")
	sup.Add(&acceptService{dispatcher: d, listener: listener})

	if d.MetricsAddr != "" {
		srv := &http.Server{Addr: d.MetricsAddr, Handler: promhttp.HandlerFor(d.metrics.Gatherer, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.L.WithError(err).Warn("metrics server stopped")
			}
		}()
		go func() {
			<-ctx.Done()
			_ = srv.Close()
		}()
	}

	return sup.Serve(ctx)
}

// acceptService is the suture.Service wrapping the accept loop itself
// (spec.md §4.D steps 3-4). A panic or returned error here is restarted
// by the supervisor with backoff rather than tearing down the process.
type acceptService struct {
	dispatcher *Dispatcher
	listener   net.Listener
}

func (s *acceptService) Serve(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return suture.ErrDoNotRestart
			default:
			}
			return fmt.Errorf("server: accept: %w", err)
		}

		go s.dispatcher.handleConnection(ctx, conn)
	}
}

func (d *Dispatcher) handleConnection(ctx context.Context, netConn net.Conn) {
	connID := uuid.NewString()[:8]
	log := logging.WithConn(connID).WithField("peer", netConn.RemoteAddr().String())

	if d.sem != nil {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			log.WithError(err).Warn("connection admission cancelled")
			_ = netConn.Close()
			return
		}
		defer d.sem.Release(1)
	}

	var limiter *rate.Limiter
	if d.RateLimitBytesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(d.RateLimitBytesPerSec), int(d.RateLimitBytesPerSec))
	}

	c := newConnection(netConn, log, d, limiter)
	defer c.shutdown(log)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("recovered from panic in connection handler: %v", r)
			c.sendError("internal error")
		}
	}()

	c.serve()
}
