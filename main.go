package main

import "github.com/drzraf/ged2dot/cmd"

func main() {
	cmd.Execute()
}
