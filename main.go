package main

import "vela/cmd"

func main() {
	cmd.Execute()
}
