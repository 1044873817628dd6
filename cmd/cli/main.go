package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/attendpass/internal/client/cli"
)

func main() {
	os.Exit(cli.Main(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
