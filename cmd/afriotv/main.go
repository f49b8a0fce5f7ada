package main

import "afriotv/cmd/afriotv/command"

func main() {
	command.Execute()
}
