package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"centrifuge/internal/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("centrifuge exited with an error")
		os.Exit(1)
	}
}
