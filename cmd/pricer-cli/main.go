package main

import (
	"context"

	"github.com/matthewgall/pricer/cmd/pricer-cli/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
