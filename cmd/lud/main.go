// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

// Command lud is the reference client and server for the lud file
// transfer protocol.
package main

import (
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/posener/complete"
	"github.com/willabides/kongplete"
	_ "go.uber.org/automaxprocs"

	"github.com/ciathefed/lud/lib/config"
	"github.com/ciathefed/lud/lib/logging"
)

// cli is the top-level command tree. Subcommand names match spec.md §6's
// operation set; short aliases follow common *nix transfer tool naming.
type cli struct {
	Server string `short:"a" help:"Server address (host:port), or a name from the config file."`

	Download downloadCmd `cmd:"" aliases:"d" help:"Download a remote file."`
	Upload   uploadCmd   `cmd:"" aliases:"u" help:"Upload a local file."`
	List     listCmd     `cmd:"" aliases:"ls" help:"List remote files."`
	Remove   removeCmd   `cmd:"" aliases:"rm" help:"Remove a remote path."`
	Ping     pingCmd     `cmd:"" aliases:"p" help:"Check server liveness."`
	Listen   listenCmd   `cmd:"" aliases:"ln" help:"Run the lud server."`

	InstallCompletions kongplete.InstallCompletions `cmd:"" help:"Install shell completions."`
}

// resolveAddr honors an explicit host:port in -a, else treats it as a
// name to resolve from the server list config. lib/client only ever
// receives the resolved address.
func (c *cli) resolveAddr() (string, error) {
	if strings.Contains(c.Server, ":") {
		return c.Server, nil
	}

	settings, err := config.Load()
	if err != nil {
		return "", err
	}
	srv, err := settings.Resolve(c.Server)
	if err != nil {
		return "", err
	}
	return srv.Addr, nil
}

func main() {
	var c cli

	parser := kong.Must(&c,
		kong.Name("lud"),
		kong.Description("A small TCP file transfer protocol client and server."),
		kong.UsageOnError(),
	)

	kongplete.Complete(parser,
		kongplete.WithPredictor("path", complete.PredictFiles("*")),
	)

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := ctx.Run(&c); err != nil {
		logging.L.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
