package main

import "github.com/fueltank/fueltank/cmd"

func main() {
	cmd.Execute()
}
