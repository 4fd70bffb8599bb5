package main

import "github.com/aqasim81/migrate-ledger/internal/cli"

func main() {
	cli.Execute()
}
