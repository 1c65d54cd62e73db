// Command components runs the sample web application.
package main

import (
	"os"

	"github.com/deep-rent/components/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
