// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"os"

	"github.com/ciathefed/lud/lib/client"
	"github.com/ciathefed/lud/lib/listprint"
)

type listCmd struct {
	Path string `arg:"" optional:"" default:"" help:"Remote subdirectory to list."`
}

func (cmd *listCmd) Run(c *cli) error {
	addr, err := c.resolveAddr()
	if err != nil {
		return err
	}

	entries, err := client.List(addr, cmd.Path)
	if err != nil {
		return fmt.Errorf("list %s: %w", cmd.Path, err)
	}

	return listprint.Print(os.Stdout, entries, listprint.IsTerminal(os.Stdout.Fd()))
}
