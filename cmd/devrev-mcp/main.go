package main

import (
	"github.com/saramaebee/devrev-mcp/cmd/devrev-mcp/commands"
)

func main() {
	commands.Execute()
}
