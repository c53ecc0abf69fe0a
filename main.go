package main

import "github.com/hexpanda/qwenvoice/cmd"

func main() {
	cmd.Execute()
}
