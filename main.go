package main

import "github.com/amigodata/amigosas/cmd/amigosas/commands"

func main() {
	commands.Execute()
}
