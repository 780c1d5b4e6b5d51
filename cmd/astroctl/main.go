package main

import "github.com/yanqian/astro-api/internal/cli"

func main() {
	cli.Execute()
}
