package main

import (
	"log"

	corecmd "github.com/m3rciful/eventbot/core/cmd"
	coreconfig "github.com/m3rciful/eventbot/core/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		Bootstrap: func(cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			return newApp(cfg)
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
