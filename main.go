// SPDX-License-Identifier: MPL-2.0

package main

import (
	cmd "dexcache/cmd/dexcache"
)

func main() {
	cmd.Execute()
}
