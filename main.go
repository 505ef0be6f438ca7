package main

import "anime4up/cmd"

func main() {
	cmd.Execute()
}
