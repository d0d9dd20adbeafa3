// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

//go:build !unix

package client

import (
	"io/fs"
	"os"
)

func setLocalMode(f *os.File, mode uint32) error {
	return nil
}

func localMode(info fs.FileInfo) uint32 {
	return 0
}
