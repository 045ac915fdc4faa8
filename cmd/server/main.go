package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/calzado-portal/apiclient"
	"github.com/jrsteele09/calzado-portal/authapi"
	"github.com/jrsteele09/calzado-portal/internal/config"
	"github.com/jrsteele09/calzado-portal/server"
	"github.com/jrsteele09/calzado-portal/server/loginsession"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	setupLogging(c)
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := newLoginSessionRepo(ctx, c)
	if err != nil {
		return err
	}
	defer closeRepo()

	client := apiclient.New(c.GetAPIBaseURL(), apiclient.WithTimeout(c.GetAPITimeout()), apiclient.WithLogger(log.Logger))
	srv, err := server.New(c, authapi.New(client), repo)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listenAndServe(httpServer)
	})
	g.Go(func() error {
		return srv.Registry().Run(gctx)
	})
	if limiter := srv.RateLimiter(); limiter != nil {
		g.Go(func() error {
			return limiter.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(httpServer)
	})

	return g.Wait()
}

// newLoginSessionRepo picks Redis when REDIS_URL is set and memory otherwise
func newLoginSessionRepo(ctx context.Context, c config.Config) (loginsession.Repo, func(), error) {
	if c.GetRedisURL() == "" {
		log.Info().Msg("Persisting token pairs in memory")
		return loginsession.NewInMemoryLoginSessionRepo(), func() {}, nil
	}

	client, err := loginsession.NewRedisClient(ctx, c.GetRedisURL())
	if err != nil {
		return nil, nil, err
	}
	log.Info().Msg("Persisting token pairs in redis")
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Err(err).Msg("Failed to close redis client")
		}
	}
	return loginsession.NewRedisLoginSessionRepo(client), closeFn, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server.ListenAndServe")
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
