// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

// Package metrics collects Prometheus counters and histograms for the
// server. Collection always happens; exposing them over HTTP is optional
// (lib/server.Dispatcher.MetricsAddr).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Direction labels a byte-transfer counter.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// Registry bundles the collectors the server dispatcher updates around
// every connection and handler invocation.
type Registry struct {
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	connectionsTotal   *prometheus.CounterVec
	connectionsActive  prometheus.Gauge
	bytesTransferred   *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
}

// NewRegistry builds and registers a fresh set of collectors on a new
// prometheus.Registry, suitable for one server process (or one test).
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		Registerer: reg,
		Gatherer:   reg,
		connectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lud_connections_total",
			Help: "Total connections handled, by operation.",
		}, []string{"op"}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lud_connections_active",
			Help: "Connections currently being handled.",
		}),
		bytesTransferred: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lud_bytes_transferred_total",
			Help: "Bytes transferred, by operation and direction.",
		}, []string{"op", "direction"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lud_operation_duration_seconds",
			Help:    "Time spent handling one operation end to end.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(r.connectionsTotal, r.connectionsActive, r.bytesTransferred, r.operationDuration)
	return r
}

// ConnectionStarted records one accepted connection for op and returns a
// func to call when the handler finishes, which records its duration.
func (r *Registry) ConnectionStarted(op string) func() {
	if r == nil {
		return func() {}
	}
	r.connectionsTotal.WithLabelValues(op).Inc()
	r.connectionsActive.Inc()
	start := time.Now()

	return func() {
		r.operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		r.connectionsActive.Dec()
	}
}

// AddBytes records n bytes moved for op in the given direction.
func (r *Registry) AddBytes(op string, dir Direction, n int) {
	if r == nil {
		return
	}
	r.bytesTransferred.WithLabelValues(op, string(dir)).Add(float64(n))
}
