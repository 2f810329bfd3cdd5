package main

import "github.com/jfmyers9/scrobblesync/cmd"

func main() {
	cmd.Execute()
}
