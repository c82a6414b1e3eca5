package main

import (
	"fmt"
	"os"

	"github.com/repolens/repolens/cmd/repolens/commands"
	"github.com/repolens/repolens/cmd/repolens/internal/clierr"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(clierr.ExitCodeOf(err))
	}
}
