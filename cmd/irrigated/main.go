// Copyright the irrigate authors.
// This file is part of irrigate.
//
// irrigate is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Command irrigated is a command-line interface for the irrigate
// FAO-56 irrigation decision engine.
package main

import (
	"fmt"
	"os"

	"github.com/fieldctl/irrigate/irrigatecli"
)

func main() {
	if err := irrigatecli.NewRoot().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
