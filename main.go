package main

import "github.com/aquanode/aqua-engine/cmd"

func main() {
	cmd.Execute()
}
