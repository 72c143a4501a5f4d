package main

import "github.com/cofoundit/cofoundit-contracts/cmd"

func main() {
	cmd.Execute()
}
