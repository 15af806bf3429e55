package main

import "github.com/cosmosinnovate/openchat-cli/cmd"

func main() {
	cmd.Execute()
}
