package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/dashkeeper/internal/server"
	"github.com/dmitrijs2005/dashkeeper/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
