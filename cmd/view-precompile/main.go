package main

import (
	"context"
	"os"

	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/command"
	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/log"
	"github.com/cockroachdb/errors"
)

func main() {
	if err := command.New().Run(context.Background(), os.Args); err != nil {
		log.Error("%v", err)
		for _, hint := range errors.GetAllHints(err) {
			log.Warn("hint: %s", hint)
		}
		os.Exit(1)
	}
}
