package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/mindmirror/mindmirror/outboxworker"
)

func main() {
	if err := outboxworker.Run(); err != nil {
		log.Error().Err(err).Msg("outbox worker failed")
		os.Exit(1)
	}
}
