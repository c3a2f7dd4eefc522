package main

import "github.com/Karshmistry/CrimAII/cmd"

func main() {
	cmd.Execute()
}
