// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"

	"github.com/ciathefed/lud/lib/client"
)

type removeCmd struct {
	Remote    string `arg:"" help:"Remote path to remove."`
	Force     bool   `short:"f" help:"Do not fail if the path does not exist."`
	Recursive bool   `short:"r" help:"Remove directories and their contents."`
}

func (cmd *removeCmd) Run(c *cli) error {
	addr, err := c.resolveAddr()
	if err != nil {
		return err
	}

	if err := client.Remove(addr, cmd.Remote, cmd.Force, cmd.Recursive); err != nil {
		return fmt.Errorf("remove %s: %w", cmd.Remote, err)
	}

	fmt.Printf("removed %s\n", cmd.Remote)
	return nil
}
