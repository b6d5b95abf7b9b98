package main

import "github.com/pitwall/f1-strategy-manager-go/cmd"

func main() {
	cmd.Execute()
}
