package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/shandysiswandi/goweave/internal/llm"
	"github.com/shandysiswandi/goweave/internal/ocr"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/goweave/internal/pkg/pkguid"
	"github.com/shandysiswandi/goweave/internal/warehouse"
)

func (a *App) initConfig() {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		fatal("failed to init config", err)
	}
	a.config = cfg

	closeLog, err := Configure(a.ctx, cfg)
	if err != nil {
		fatal("failed to init logging", err)
	}
	a.addCloser("Log File", func(context.Context) error { return closeLog() })
	a.addCloser("Config", func(context.Context) error { return a.config.Close() })
}

func (a *App) initLibraries() {
	a.goroutine = pkgroutine.NewManager(int(a.config.GetInt("server.goroutines")))
	a.uuid = pkguid.NewUUID()
	a.httpClient = HTTPClient(a.config)

	sf, err := pkguid.NewSnowflake()
	if err != nil {
		fatal("failed to init snowflake", err)
	}
	a.snowflake = sf
}

func (a *App) initResources() {
	wh, err := warehouse.Open(a.ctx, a.config, a.snowflake)
	if err != nil {
		fatal("failed to open warehouse", err)
	}
	a.warehouse = wh
	a.addCloser("Warehouse", func(context.Context) error { return a.warehouse.Close() })

	// OCR and the chat model are optional: the server still runs without
	// credentials, only their endpoints are missing.
	if a.config.GetBool("modules.ocr.enabled") {
		engine, err := ocr.NewEngine(a.ctx, a.config)
		if err != nil {
			slog.Warn("ocr engine unavailable, /ocr disabled", "error", err)
		} else {
			a.ocr = ocr.NewService(engine)
			a.addCloser("OCR", func(context.Context) error { return a.ocr.Close() })
		}
	}

	if a.config.GetBool("modules.chain.enabled") {
		factory, err := llm.FactoryFromConfig(a.config, a.httpClient)
		if err != nil {
			fatal("failed to init chat model factory", err)
		}

		model, err := factory.Build(a.ctx)
		if err != nil {
			slog.Warn("chat model unavailable, chain endpoints disabled", "error", err)
		} else {
			a.model = model
		}
	}
}

func (a *App) initHTTPServer() {
	a.router = pkgrouter.NewRouter(a.uuid)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	addr := a.config.GetString("server.address.http")
	if addr == "" {
		addr = ":8080"
	}

	a.httpServer = &http.Server{
		Addr:              addr,
		Handler:           corsHandler.Handler(a.router),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
