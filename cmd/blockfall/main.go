package main

import "github.com/progate-hackathon-strawberry-flavor/blockfall/internal/cmd"

func main() {
	cmd.Execute()
}
