package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"EditaisScanner/internal/classify"
	"EditaisScanner/internal/config"
	"EditaisScanner/internal/domain"
	"EditaisScanner/internal/extract"
	"EditaisScanner/internal/httpapi"
	"EditaisScanner/internal/infrastructure/document"
	"EditaisScanner/internal/infrastructure/kafka"
	"EditaisScanner/internal/infrastructure/parser"
	"EditaisScanner/internal/infrastructure/scheduler"
	"EditaisScanner/internal/infrastructure/storage"
	"EditaisScanner/internal/infrastructure/telegram"
	"EditaisScanner/internal/logging"
	"EditaisScanner/internal/ports"
	"EditaisScanner/internal/usecase"
)

const (
	globalSubscriber = "global"
	stopTimeout      = 30 * time.Second
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	store     ports.NoticeStore
	pipeline  *usecase.Pipeline
	searcher  *usecase.Searcher
	scheduler *scheduler.IntervalScheduler

	telegram  *telegram.Client
	publisher *kafka.Publisher
	closers   []func() error
}

// New builds every adapter the configuration enables.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	store, err := a.buildStore(ctx)
	if err != nil {
		return nil, err
	}
	a.store = store

	source := parser.NewListingScanner(cfg.Source, nil, baseLogger.With("component", "source"))
	downloader := document.NewDownloader(cfg.Documents, cfg.Source.UserAgent, baseLogger.With("component", "downloader"))
	registry := extract.NewRegistry(document.PDFExtractor{})
	baseLogger.Debug("document extractors registered", "formats", registry.Formats())

	classifier := classify.NewClassifier(classify.ClassifierDeps{
		Keywords:     cfg.Filter.Keywords,
		Fetcher:      downloader,
		Reader:       registry,
		RejectionTTL: cfg.Documents.RejectionTTL,
		Logger:       baseLogger.With("component", "classifier"),
	})

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Store:      store,
		Locality:   classify.NewLocalityFilter(cfg.Filter.Locality),
		Classifier: classifier,
		Logger:     baseLogger.With("component", "pipeline"),
	})
	a.scheduler = scheduler.NewIntervalScheduler()
	a.searcher = usecase.NewSearcher(a.pipeline, a.scheduler, baseLogger.With("component", "searcher"))

	if cfg.Notifications.Telegram.BotToken != "" {
		a.telegram = telegram.NewClient(cfg.Notifications.Telegram)
	}
	if len(cfg.Notifications.Kafka.Brokers) > 0 {
		publisher, err := kafka.NewPublisher(cfg.Notifications.Kafka, baseLogger.With("component", "kafka"))
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		a.publisher = publisher
		a.closers = append(a.closers, publisher.Close)
	}

	return a, nil
}

func (a *Application) buildStore(ctx context.Context) (ports.NoticeStore, error) {
	switch a.cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		store, err := storage.OpenPostgres(ctx, a.cfg.Storage.DSN, a.cfg.Storage.Table)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		return storage.NewJSONStore(a.cfg.Storage.Path).ResolveAgainst(a.cfg.Source.ListingURL), nil
	}
}

// Store exposes the accepted set backend.
func (a *Application) Store() ports.NoticeStore {
	return a.store
}

// Searcher exposes the guarded run surface for front-ends.
func (a *Application) Searcher() *usecase.Searcher {
	return a.searcher
}

// Sinks returns the configured broadcast channels: the default Telegram chat
// and the Kafka topic. Nil when none is configured.
func (a *Application) Sinks() ports.NoticeSink {
	var sinks usecase.MultiSink
	if a.telegram != nil && a.cfg.Notifications.Telegram.ChatID != "" {
		sinks = append(sinks, telegram.NewChatSink(a.telegram, a.cfg.Notifications.Telegram.ChatID, telegram.HeadlineScheduled))
	}
	if a.publisher != nil {
		sinks = append(sinks, a.publisher)
	}
	if len(sinks) == 0 {
		return nil
	}
	return sinks
}

// RunOnce performs a single guarded search; with publish set the delta also
// goes to the configured sinks.
func (a *Application) RunOnce(ctx context.Context, publish bool) ([]domain.Notice, error) {
	notices, err := a.searcher.TriggerSearch(ctx)
	if err != nil {
		return nil, err
	}
	if !publish || len(notices) == 0 {
		return notices, nil
	}
	sink := a.Sinks()
	if sink == nil {
		a.logger.Warn("publish requested but no sink is configured")
		return notices, nil
	}
	if err := sink.Deliver(ctx, notices); err != nil {
		return notices, fmt.Errorf("deliver notices: %w", err)
	}
	return notices, nil
}

// Serve runs the Telegram bot, the HTTP API and the global recurring search
// (each only when configured) until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	started := 0

	if a.cfg.Scheduler.Interval > 0 {
		sink := a.Sinks()
		if sink == nil {
			a.logger.Warn("scheduler.interval set but no sink is configured; results are only persisted")
			sink = usecase.MultiSink{}
		}
		if err := a.searcher.RegisterRecurringSearch(ctx, globalSubscriber, a.cfg.Scheduler.Interval, a.cfg.Scheduler.FirstDelay, sink); err != nil {
			return err
		}
		group.Go(func() error {
			<-ctx.Done()
			return nil
		})
		started++
	}

	if a.telegram != nil {
		bot := telegram.NewBot(telegram.BotDeps{
			Client:       a.telegram,
			Searcher:     a.searcher,
			PollTimeout:  a.cfg.Notifications.Telegram.PollTimeout,
			AutoInterval: a.cfg.Scheduler.AutoInterval,
			AutoDelay:    a.cfg.Scheduler.AutoDelay,
			Logger:       a.logger.With("component", "telegram"),
		})
		group.Go(func() error { return bot.Run(ctx) })
		started++
	}

	if a.cfg.HTTP.BindAddr != "" {
		router := httpapi.NewRouter(httpapi.Deps{
			Searcher: a.searcher,
			Store:    a.store,
			Logger:   a.logger.With("component", "httpapi"),
		})
		group.Go(func() error {
			return httpapi.Serve(ctx, a.cfg.HTTP.BindAddr, router, a.logger.With("component", "httpapi"))
		})
		started++
	}

	if started == 0 {
		return errors.New("nothing to serve: configure a telegram bot token, http.bindAddr or scheduler.interval")
	}

	err := group.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if stopErr := a.scheduler.Stop(stopCtx); stopErr != nil {
		a.logger.Warn("scheduler stop", "error", stopErr)
	}
	return err
}

// Close releases database connections and flushes publishers.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
