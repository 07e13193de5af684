package main

import "github.com/CraigKelly/modelgibbs/cmd"

func main() {
	cmd.Execute()
}
