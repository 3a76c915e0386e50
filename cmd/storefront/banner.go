package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"storefront/internal/config"
)

func printBanner(cfg *config.Config) {
	_ = pterm.DefaultBigText.WithLetters(
		pterm.NewLettersFromStringWithStyle("STORE", pterm.NewStyle(pterm.FgCyan)),
		pterm.NewLettersFromStringWithStyle("FRONT", pterm.NewStyle(pterm.FgMagenta)),
	).Render()

	printSignature(cfg)
}

func printSignature(cfg *config.Config) {
	cyan := color.New(color.FgHiCyan, color.Bold).SprintFunc()
	white := color.New(color.FgWhite).SprintFunc()
	dim := color.New(color.FgHiBlack).SprintFunc()

	fmt.Println()
	fmt.Printf("%s : %s\n", cyan("Business   "), white(cfg.App.BusinessName))
	fmt.Printf("%s : %s %s\n", cyan("Version    "), white(Version), dim("("+cfg.App.Version+")"))
	fmt.Printf("%s : %s\n", cyan("Environment"), white(cfg.Server.Env))
	fmt.Printf("%s : %s\n", cyan("Images     "), white(cfg.ImageHost.Driver))
	fmt.Println()
}
