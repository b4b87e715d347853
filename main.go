package main

import "github.com/theirongolddev/chargesense/cmd"

func main() {
	cmd.Execute()
}
