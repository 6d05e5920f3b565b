package main

import "runlog/cmd"

func main() {
	cmd.Execute()
}
