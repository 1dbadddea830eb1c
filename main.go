package main

import "github.com/timvw/hostshot/cmd"

func main() {
	cmd.Execute()
}
