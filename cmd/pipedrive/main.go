package main

import (
	"fmt"
	"os"

	"github.com/natserract/pipedrive/cmd/pipedrive/commands"
)

func main() {
	app := commands.NewApp()
	err := commands.NewRootCommand(app).Execute()
	app.Close()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
