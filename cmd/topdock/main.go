package main

import "topdock/cmd/topdock/commands"

func main() {
	commands.Execute()
}
