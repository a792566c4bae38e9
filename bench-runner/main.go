package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	app := NewApp()
	if err := app.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
