package main

import "github.com/prstats/prstats/cmd"

func main() {
	cmd.Execute()
}
