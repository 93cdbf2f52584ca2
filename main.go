// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/routeco2/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
