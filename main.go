package main

import "thoreinstein.com/relnote/cmd"

func main() {
	cmd.Execute()
}
