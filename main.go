package main

import "github.com/theirongolddev/ratewatch/cmd"

func main() {
	cmd.Execute()
}
