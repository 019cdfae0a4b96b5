package main

import "github.com/lexcodex/nlcommand/app/cmd"

func main() {
	cmd.Execute()
}
