package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/calpoly-csai/nimbus-transformer/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing POST /ask, POST /ask/stream,
GET /answers/{id}, POST /answers/{id}/feedback, GET /health and GET /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, appOptions{
		Pipeline: pipelineOptions(),
		Storage:  true,
		Metrics:  prometheus.DefaultRegisterer,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	srvCfg := server.Config{
		Port:      cfg.Port,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	}

	// A nil *db.DB must not reach the server as a non-nil interface.
	var store server.AnswerStore
	if a.database != nil {
		store = a.database
	}

	srv := server.New(srvCfg, a.pipeline, store, log)
	if a.database != nil {
		srv.WithHealthCheck("postgres", a.database.Ping)
	}
	if a.answers != nil {
		srv.WithHealthCheck("redis", a.answers.Ping)
	}
	return srv.Start(ctx)
}
