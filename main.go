package main

import "bilisub/cmd"

func main() {
	cmd.Execute()
}
