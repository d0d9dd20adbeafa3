// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ciathefed/lud/lib/client"
	"github.com/ciathefed/lud/lib/transfer"
)

type downloadCmd struct {
	Remote string `arg:"" help:"Remote path to download." predictor:"path"`
	Output string `short:"o" help:"Local destination path. Defaults to the remote basename."`
	Force  bool   `short:"f" help:"Overwrite the local file if it exists."`
}

func (cmd *downloadCmd) Run(c *cli) error {
	addr, err := c.resolveAddr()
	if err != nil {
		return err
	}

	local := cmd.Output
	if local == "" {
		local = transfer.DefaultFilename(cmd.Remote, time.Now())
	}

	start := time.Now()
	var total uint64
	err = client.Download(addr, cmd.Remote, client.DownloadOptions{
		LocalPath: local,
		Force:     cmd.Force,
		OnProgress: func(transferred, size uint64) {
			total = transferred
		},
	})
	if err != nil {
		return fmt.Errorf("download %s: %w", cmd.Remote, err)
	}

	fmt.Printf("downloaded %s -> %s (%s in %s)\n", cmd.Remote, local, humanize.Bytes(total), time.Since(start).Round(time.Millisecond))
	return nil
}
