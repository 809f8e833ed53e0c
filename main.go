package main

import "github.com/afgc/registry/cmd"

func main() {
	cmd.Execute()
}
