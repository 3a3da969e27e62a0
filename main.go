package main

import "github.com/KaramelBytes/datadeck-cli/cmd"

func main() {
	cmd.Execute()
}
