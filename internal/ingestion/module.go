package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shandysiswandi/goweave/internal/csvrow"
	"github.com/shandysiswandi/goweave/internal/ingest"
	"github.com/shandysiswandi/goweave/internal/ingestion/event"
	"github.com/shandysiswandi/goweave/internal/ingestion/inbound"
	"github.com/shandysiswandi/goweave/internal/ingestion/store"
	"github.com/shandysiswandi/goweave/internal/ingestion/usecase"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/goweave/internal/pkg/pkguid"
	"github.com/shandysiswandi/goweave/internal/warehouse"
)

type Dependency struct {
	Config    pkgconfig.Config
	Goroutine *pkgroutine.Manager
	Router    *pkgrouter.Router
	Context   context.Context
	ID        pkguid.StringID
	Warehouse warehouse.Inserter
}

func New(dep Dependency) (func(context.Context) error, error) {
	opts, err := ingest.OptionsFromConfig(dep.Config)
	if err != nil {
		return nil, err
	}

	storage, closeStore, err := newStore(dep.Context, dep.Config)
	if err != nil {
		return nil, err
	}

	if dep.ID == nil {
		dep.ID = pkguid.NewUUID()
	}

	buffer := int(dep.Config.GetInt("modules.ingestion.dead_letter.buffer"))
	if buffer < 1 {
		buffer = 512
	}
	bus := event.NewBus(buffer)

	uc := usecase.New(usecase.Dependency{
		Store:     storage,
		Events:    bus,
		Runner:    dep.Goroutine,
		ID:        dep.ID,
		RootCtx:   dep.Context,
		Warehouse: dep.Warehouse,
		Options:   opts,
		CSV: csvrow.Options{
			Strict:    dep.Config.GetBool("ingest.strict"),
			TrimSpace: dep.Config.GetBool("ingest.trim_space"),
		},
	})

	maxRetries := int(dep.Config.GetInt("modules.ingestion.dead_letter.max_retries"))

	var handler event.Handler = event.LogHandler{}
	consumerRetries := 0
	if maxRetries > 0 {
		handler = event.Reinserter{Inserter: dep.Warehouse, OnRecovered: uc.RecordRecovered}
		// the first handler call is already a retry
		consumerRetries = maxRetries - 1
	}

	consumer := event.NewRetryConsumer(bus, handler, event.ConsumerConfig{
		Workers:     int(dep.Config.GetInt("modules.ingestion.dead_letter.workers")),
		MaxRetries:  consumerRetries,
		BaseBackoff: dep.Config.GetDuration("modules.ingestion.dead_letter.backoff"),
	})
	consumer.Start()

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return func(ctx context.Context) error {
		return errors.Join(consumer.Stop(ctx), closeStore())
	}, nil
}

func newStore(ctx context.Context, cfg pkgconfig.Config) (usecase.Store, func() error, error) {
	switch kind := strings.ToLower(cfg.GetString("modules.ingestion.store")); kind {
	case "", "memory":
		return store.NewInMemoryStore(), func() error { return nil }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.GetString("modules.ingestion.redis.addr"),
			Password: cfg.GetString("modules.ingestion.redis.password"),
			DB:       int(cfg.GetInt("modules.ingestion.redis.db")),
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}

		ttl := cfg.GetDuration("modules.ingestion.redis.ttl")
		return store.NewRedisStore(client, cfg.GetString("modules.ingestion.redis.prefix"), ttl), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown ingestion store %q", kind)
	}
}
