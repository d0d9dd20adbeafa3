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
)

type uploadCmd struct {
	Local  string `arg:"" help:"Local file to upload." type:"existingfile" predictor:"path"`
	Remote string `arg:"" help:"Remote destination path."`
	Force  bool   `short:"f" help:"Overwrite the remote file if it exists."`
}

func (cmd *uploadCmd) Run(c *cli) error {
	addr, err := c.resolveAddr()
	if err != nil {
		return err
	}

	start := time.Now()
	var total uint64
	err = client.Upload(addr, cmd.Remote, client.UploadOptions{
		LocalPath: cmd.Local,
		Force:     cmd.Force,
		OnProgress: func(transferred, size uint64) {
			total = transferred
		},
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", cmd.Local, err)
	}

	fmt.Printf("uploaded %s -> %s (%s in %s)\n", cmd.Local, cmd.Remote, humanize.Bytes(total), time.Since(start).Round(time.Millisecond))
	return nil
}
