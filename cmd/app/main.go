package main

import (
	"flag"
	"log"

	"mpeg-transcriber/internal/bootstrap"
)

func main() {
	terminal := flag.Bool("tui", false, "run in the terminal instead of a desktop window")
	flag.Parse()

	if *terminal {
		app, err := bootstrap.NewTerminal()
		if err != nil {
			log.Fatalf("bootstrap app: %v", err)
		}
		if err := app.RunTerminal(); err != nil {
			log.Fatalf("run terminal: %v", err)
		}
		return
	}

	app, err := bootstrap.New()
	if err != nil {
		log.Fatalf("bootstrap app: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("run app: %v", err)
	}
}
