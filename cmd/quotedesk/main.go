package main

import (
	"context"
	"log"
	"os"

	"github.com/quotedesk/quotedesk/cmd/quotedesk/commands"
)

func main() {
	if err := commands.NewApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
