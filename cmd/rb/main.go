package main

import "github.com/claude/repbuddy/cmd/rb/root"

func main() {
	root.Execute()
}
