package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/covert-channels/burst/controller"
	"github.com/covert-channels/burst/controller/channel/burst"
)

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the websocket controller",
		Long: `Serve the websocket controller on ` + controller.WebsocketPath + ` and the
channel metrics on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())

			ctr, err := controller.CreateController(burst.NewMetrics(reg))
			if err != nil {
				return err
			}
			defer ctr.Shutdown()

			srv := &http.Server{
				Addr:    ":" + strconv.Itoa(port),
				Handler: ctr.Router(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
			}

			// Intercept the kill signal to ensure proper shutdown
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			go func() {
				<-ctx.Done()
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(sctx)
			}()

			log.Infof("http server started on :%d", port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			log.Info("Shutting down")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "The port for the websocket and metrics")

	return cmd
}
