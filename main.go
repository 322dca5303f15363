package main

import "github.com/VoxDroid/lintrunner/cmd"

func main() {
	cmd.Execute()
}
