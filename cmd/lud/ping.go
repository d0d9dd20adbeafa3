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

type pingCmd struct{}

func (cmd *pingCmd) Run(c *cli) error {
	addr, err := c.resolveAddr()
	if err != nil {
		return err
	}

	rtt, err := client.Ping(addr)
	if err != nil {
		return fmt.Errorf("ping %s: %w", addr, err)
	}

	fmt.Printf("pong from %s in %s\n", addr, rtt)
	return nil
}
