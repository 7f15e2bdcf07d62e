package main

import "github.com/Justype/condorlink/cmd"

func main() {
	cmd.Execute()
}
