package main

import "github.com/corvyn/hxroute/cmd"

func main() {
	cmd.Execute()
}
