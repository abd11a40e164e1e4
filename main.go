// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/vkshadergen/vkshadergen/cmd/vkshadergen"

func main() {
	cmd.Execute()
}
