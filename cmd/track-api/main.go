package main

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

func main() {
	app := mustBootstrapTrackAPI()
	defer app.Close()

	if err := app.Run(); err != nil && !errors.Is(err, context.Canceled) {
		app.log.Error("track-api stopped", zap.Error(err))
		panic(err)
	}
}
