package main

import "github.com/pders01/cascade/cmd"

func main() {
	cmd.Execute()
}
