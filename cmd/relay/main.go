package main

import (
	"flag"
	"net/http"
	"time"

	"go.uber.org/zap"

	"whisperkit/internal/relay"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           relay.NewServer(log).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("relay listening", zap.String("addr", *addr))
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal("relay server", zap.Error(err))
	}
}
