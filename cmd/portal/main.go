package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/hivecraft/portal/api"
	"github.com/hivecraft/portal/blob"
	"github.com/hivecraft/portal/config"
	"github.com/hivecraft/portal/globals"
	"github.com/hivecraft/portal/hub"
	"github.com/hivecraft/portal/mail"
	"github.com/hivecraft/portal/metrics"
	"github.com/hivecraft/portal/persistence"
	"github.com/spf13/pflag"
)

var (
	configPath = pflag.StringP("config", "c", "", "path to config file or directory")
	addr       = pflag.String("addr", "", "service address (including port), overrides the configuration")
)

func main() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		<-c
		log.Fatal("interrupted!")
	}()

	flagSet := config.GetFlagSet()
	pflag.CommandLine.AddFlagSet(flagSet)
	pflag.Parse()
	log.SetFlags(0)

	cfg, err := config.ReadConfiguration(*configPath, flagSet)
	if err != nil {
		panic(err)
	}
	if cfg.LogLevel != "" {
		globals.AppLogger.SetLevel(hclog.LevelFromString(cfg.LogLevel))
	}
	if *addr != "" {
		cfg.ServerConfig.Addr = *addr
	}

	persister, err := persistence.NewPersister(cfg)
	if err != nil {
		panic(err)
	}
	if persister == nil {
		panic("no persistence configured")
	}
	defer persister.Close()

	blobs, err := blob.NewS3Store(context.Background(), cfg)
	if err != nil {
		panic(err)
	}
	mailer := mail.NewSender(cfg)

	h := hub.NewHub(cfg)
	go h.Run()
	notifier := hub.NewNotifier(h)

	server, err := api.NewServer(cfg, persister, notifier, blobStore(blobs), mailer)
	if err != nil {
		panic(err)
	}
	jobs := server.StartJobs()
	defer jobs.Stop()

	router := mux.NewRouter()
	server.Routes(router)
	router.HandleFunc("/ws", hub.Handler(h)).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	cors := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins([]string{cfg.ServerConfig.FrontendOrigin}),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete}),
		gorillahandlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		gorillahandlers.AllowCredentials(),
	)

	globals.AppLogger.Info("listening", "addr", cfg.ServerConfig.Addr)
	if cfg.ServerConfig.SSLCert != "" && cfg.ServerConfig.SSLKey != "" {
		err = http.ListenAndServeTLS(cfg.ServerConfig.Addr, cfg.ServerConfig.SSLCert, cfg.ServerConfig.SSLKey, cors(router))
	} else {
		err = http.ListenAndServe(cfg.ServerConfig.Addr, cors(router))
	}
	globals.AppLogger.Error("stopped listening", "error", err)
}

// blobStore keeps a nil *S3Store from turning into a non-nil Store
// interface value when storage is not configured.
func blobStore(s *blob.S3Store) blob.Store {
	if s == nil {
		return nil
	}
	return s
}
