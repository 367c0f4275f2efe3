package main

import "example.com/geomap/command-control/cmd"

func main() {
	cmd.Execute()
}
