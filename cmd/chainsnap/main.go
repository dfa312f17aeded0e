package main

import "github.com/chainsnap/chainsnap/cmd/chainsnap/cmd"

func main() {
	cmd.Execute()
}
