package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/256dpi/serve"
	"github.com/256dpi/xo"

	"github.com/hootbox/hootbox/api"
	"github.com/hootbox/hootbox/hoot"
	"github.com/hootbox/hootbox/roost"
	"github.com/hootbox/hootbox/talon"
)

// devSecret is only used when no secret has been configured. Running without
// a configured secret is limited to the in-memory store.
const devSecret = "hootbox-dev-secret"

func main() {
	// parse flags
	addr := flag.String("addr", env("HOOTBOX_ADDR", ":8080"), "listen address")
	uri := flag.String("db", env("HOOTBOX_DB", ""), "mongodb uri, empty for the in-memory store")
	secret := flag.String("secret", env("HOOTBOX_SECRET", ""), "token secret")
	flag.Parse()

	// check secret
	if *secret == "" {
		if *uri != "" {
			log.Fatal("missing token secret")
		}
		*secret = devSecret
	}

	// open store
	var store *roost.Store
	if *uri != "" {
		store = roost.MustConnect(*uri)
	} else {
		store = roost.MustOpen(nil, "hootbox")
	}
	defer store.Close()

	// create notary
	notary := talon.NewNotary("hootbox", []byte(*secret))

	// issue a development token when running in memory
	if store.Lungo() {
		token, err := notary.Issue(talon.Identity{
			ID:   roost.New(),
			Name: "dev",
		}, 24*time.Hour)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("development token: %s", token)
	}

	// create service
	service := hoot.NewService(store)

	// compose handler
	handler := serve.Compose(
		xo.RootHandler(),
		api.DefaultRequestLogger(),
		serve.Throttle(100),
		api.Handler(service, notary),
	)

	// prepare server
	server := &http.Server{
		Addr:    *addr,
		Handler: handler,
	}

	// run server
	errs := make(chan error, 1)
	go func() {
		errs <- server.ListenAndServe()
	}()

	// await signal
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("listening on %s", *addr)

	select {
	case err := <-errs:
		log.Fatal(err)
	case sig := <-signals:
		log.Printf("received %s, shutting down", sig)
	}

	// drain server
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := server.Shutdown(ctx)
	if err != nil {
		log.Print(err)
	}
}

func env(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}

	return fallback
}
