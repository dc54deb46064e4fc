package main

import "github.com/xaenox/intentbot/internal/cmd"

func main() {
	cmd.Execute()
}
