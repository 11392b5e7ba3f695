package app

import (
	"github.com/shandysiswandi/goweave/internal/chain"
	"github.com/shandysiswandi/goweave/internal/ingestion"
	"github.com/shandysiswandi/goweave/internal/ocr"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.ingestion.enabled") {
		closer, err := ingestion.New(ingestion.Dependency{
			Config:    a.config,
			Router:    a.router,
			Goroutine: a.goroutine,
			Context:   a.ctx,
			ID:        a.uuid,
			Warehouse: a.warehouse,
		})
		if err != nil {
			fatal("failed to init module ingestion", err)
		}
		a.addCloser("Ingestion", closer)
	}

	if a.ocr != nil {
		ocr.RegisterHTTPEndpoint(a.router, a.ocr)
	}

	if a.model != nil {
		chain.RegisterHTTPEndpoint(a.router, a.model)
	}
}
