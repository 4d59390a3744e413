package main

import "SpectraDL/internal/cli"

func main() {
	cli.Execute()
}
