package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	reuseport "github.com/kavu/go_reuseport"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/rcontf/beta-serverless-api/api"
	"github.com/rcontf/beta-serverless-api/client"
	"github.com/rcontf/beta-serverless-api/internal/env"
	"github.com/rcontf/beta-serverless-api/storage"
	"github.com/rcontf/beta-serverless-api/transport"
)

var (
	// The host to listen on
	host string

	// The port to listen for http requests on
	httpPort string
)

func init() {
	flags := StartCmd.PersistentFlags()

	flags.StringVar(&httpPort, "http-port", "8080", "The port to listen to HTTP requests on")
	flags.StringVarP(&host, "host", "a", "0.0.0.0", "The host to listen on")
}

var StartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start up the RCON command API service",
	Long: `Start up the RCON command API service

Usage
	rcon-api start

`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
		defer signalStop()

		log, err := env.MakeLogger()
		if err != nil {
			return err
		}

		fileLimit, err := setFileLimit()
		if err != nil {
			return err
		}

		log.Info("Set file limit", zap.Uint64("fileLimit", fileLimit))

		conf, err := env.LoadConfig(ctx)
		if err != nil {
			return err
		}

		store := storage.NewInmemoryStore()
		dialer := transport.NewDialer(transport.Options{
			DialTimeout: conf.DialTimeout,
			Log:         log.Named("transport"),
		})

		server := api.NewServer(api.Options{
			NewClient: func(serverHost string, serverPort int, password string) api.Commander {
				return client.New(serverHost, serverPort, password, client.Options{
					Dialer: dialer,
					Log:    log.Named("client"),
				})
			},
			Store:     store,
			DebugHTTP: conf.DebugHTTP,
			Log:       log.Named("api"),
		})

		router := server.Router()

		// Ping test
		router.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		addr := net.JoinHostPort(host, httpPort)

		listener, err := reuseport.Listen("tcp", addr)
		if err != nil {
			return err
		}

		s := &http.Server{
			Handler: router,
		}

		// Serving in a goroutine so that it won't block the graceful
		// shutdown handling below
		go func() {
			if err := s.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Http server errored", zap.Error(err))
			}
		}()

		log.Info("Listening",
			zap.Any("config", conf),
			zap.String("addr", addr))

		// Listen for the interrupt signal.
		<-ctx.Done()

		// Restore default behavior on the interrupt signal and notify user of shutdown.
		signalStop()
		log.Info("Shutting down gracefully, press Ctrl+C again to force")

		// The context is used to inform the server it has 5 seconds to finish
		// the request it is currently handling
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.SetKeepAlivesEnabled(false)

		err = s.Shutdown(shutdownCtx)
		if err != nil {
			log.Error("Http server forced to shutdown", zap.Error(err))
		}

		err = multierr.Append(err, store.Close())

		log.Info("Exiting")
		return err
	},
}

func setFileLimit() (uint64, error) {
	var rLimit syscall.Rlimit

	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	rLimit.Cur = rLimit.Max
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	return rLimit.Cur, nil
}
