package main

import "github.com/twlnand/nandrestore/cmd"

func main() {
	cmd.Execute()
}
