package main

import "github.com/gaurav-prasanna/radiopipe/cmd"

func main() {
	cmd.Execute()
}
