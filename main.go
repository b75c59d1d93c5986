package main

import "github.com/lepinkainen/dalite/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
