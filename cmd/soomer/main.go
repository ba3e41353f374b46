package main

import "github.com/bryanchriswhite/soomer/cmd/soomer/commands"

func main() {
	commands.Execute()
}
