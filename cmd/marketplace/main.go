package main

import "github.com/RoyceAzure/lab/marketplace/internal/cmd"

func main() {
	cmd.Execute()
}
