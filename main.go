package main

import "Playshare/cmd"

func main() {
	cmd.Execute()
}
