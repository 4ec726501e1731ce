package main

import "github.com/cognicore/captionsort/internal/cli"

func main() {
	cli.Execute()
}
