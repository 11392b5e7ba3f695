package app

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/goweave/internal/llm"
	"github.com/shandysiswandi/goweave/internal/ocr"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/goweave/internal/pkg/pkguid"
	"github.com/shandysiswandi/goweave/internal/warehouse"
)

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	configPath string
	config     pkgconfig.Config

	// libraries
	uuid       pkguid.StringID
	snowflake  *pkguid.Snowflake
	goroutine  *pkgroutine.Manager
	httpClient *http.Client

	// resources
	warehouse warehouse.Inserter
	ocr       *ocr.Service
	model     llm.ChatModel

	// server
	router     *pkgrouter.Router
	httpServer *http.Server

	// closed in order, last registered first
	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// New wires the HTTP application from the config file at configPath. An
// empty configPath falls back to DefaultConfigPath.
func New(configPath string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:        ctx,
		cancel:     cancel,
		configPath: configPath,
	}

	app.initConfig()
	app.initLibraries()
	app.initResources()
	app.initHTTPServer()
	app.initModules()

	return app
}

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}
