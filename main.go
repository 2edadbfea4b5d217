package main

import "github.com/mj1618/device-bridge/cmd"

func main() {
	cmd.Execute()
}
