package main

import (
	"log"

	"github.com/m3rciful/finbot/core/cmd"
	"github.com/m3rciful/finbot/internal/app"
)

func main() {
	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("finbot: %v", err)
	}
}
