package main

import "github.com/tessro/telepath/internal/cli"

func main() {
	cli.Execute()
}
