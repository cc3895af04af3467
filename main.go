package main

import "roiflow/cmd"

func main() {
	cmd.Execute()
}
