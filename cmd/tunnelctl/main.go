package main

import "github.com/skiffvpn/tunnelctl/cmd/tunnelctl/cmd"

func main() {
	cmd.Execute()
}
