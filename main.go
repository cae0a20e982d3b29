package main

import (
	"EventLoopDemo/strategy"
	"EventLoopDemo/ui"
	"context"
	"embed"
	"log"
	"os"

	"fyne.io/fyne/v2/app"
)

const appID = "event_loop_test"

//go:embed assets/*
var content embed.FS

func main() {
	variants, err := strategy.LoadVariants(content)
	if err != nil {
		log.Fatalf("Failed to load variants: %v", err)
	}
	if err := strategy.ApplyEnv(variants, os.Getenv); err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}
	log.Printf("Loaded %d demo variants.", len(variants))

	fyneApp := app.NewWithID(appID)
	fyneApp.Settings().SetTheme(ui.NewCustomTheme())

	a := NewAppManager(fyneApp, log.Default())
	if err := a.Register(variants); err != nil {
		log.Fatalf("Failed to register variants: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	exit := make(chan int, 1)
	go func() { exit <- a.Run(ctx) }()

	// fyne returns once the last window is closed
	fyneApp.Run()
	a.Shutdown()
	cancel()

	os.Exit(<-exit)
}
