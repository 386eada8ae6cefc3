// Package app wires configuration into the pipeline's components and
// exposes the operations the CLI drives.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reviewpulse/internal/analytics"
	"reviewpulse/internal/config"
	"reviewpulse/internal/domain"
	"reviewpulse/internal/infrastructure/brightdata"
	"reviewpulse/internal/infrastructure/llm"
	"reviewpulse/internal/infrastructure/records"
	"reviewpulse/internal/infrastructure/storage"
	"reviewpulse/internal/infrastructure/telegram"
	"reviewpulse/internal/logging"
	"reviewpulse/internal/mapper"
	"reviewpulse/internal/ports"
	"reviewpulse/internal/processor"
	"reviewpulse/internal/ratelimit"
	"reviewpulse/internal/tracker"
)

// Application owns the assembled pipeline and its database handle.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	store     *storage.SQLiteStore
	scraper   ports.ScraperService
	tracker   *tracker.Tracker
	poller    *tracker.Poller
	processor *processor.Processor
	engine    *analytics.Engine
	notifier  ports.Notifier
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	store, err := storage.New(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}

	registry := mapper.NewRegistry()
	registry.Register(records.NewGoogleMapper())
	registry.Register(records.NewYelpMapper())

	scraper := brightdata.NewClient(cfg.BrightData)
	limiter := ratelimit.NewLimiter(cfg.RateLimit)

	trk := tracker.New(tracker.Deps{
		Snapshots: store,
		Reviews:   store,
		Scraper:   scraper,
		Registry:  registry,
		Logger:    logging.Component(baseLogger, "tracker"),
	})

	interval, err := time.ParseDuration(cfg.Polling.Interval)
	if err != nil {
		interval = 30 * time.Second
	}
	poller := tracker.NewPoller(trk, interval, cfg.Polling.MaxPolls,
		logging.Component(baseLogger, "poller"))

	var extractor ports.ExtractionService
	if cfg.Claude.APIKey != "" {
		extractor = llm.NewClaudeClient(cfg.Claude)
	}
	proc := processor.New(processor.Deps{
		Store:     store,
		Extractor: extractor,
		Limiter:   limiter,
		Logger:    logging.Component(baseLogger, "processor"),
	})

	engine := analytics.NewEngine(store, logging.Component(baseLogger, "analytics"))

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		db:        db,
		store:     store,
		scraper:   scraper,
		tracker:   trk,
		poller:    poller,
		processor: proc,
		engine:    engine,
		notifier:  notifier,
	}, nil
}

// Close releases the database handle.
func (a *Application) Close() error {
	return a.db.Close()
}

// Scrape submits a provider job for the configured restaurant and
// registers the resulting snapshot for tracking.
func (a *Application) Scrape(ctx context.Context, source domain.Source, daysLimit int) (domain.Snapshot, error) {
	job, err := a.buildJob(source, daysLimit)
	if err != nil {
		return domain.Snapshot{}, err
	}

	snapshotID, err := a.scraper.SubmitJob(ctx, job)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("submit %s job: %w", source, err)
	}

	now := time.Now().UTC()
	snapshot := domain.Snapshot{
		ID:           snapshotID,
		Source:       source,
		Status:       domain.SnapshotQueued,
		RestaurantID: job.RestaurantID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.tracker.Register(ctx, snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("register snapshot: %w", err)
	}

	a.logger.Info("scrape job submitted", "snapshot", snapshotID, "source", source)
	return snapshot, nil
}

func (a *Application) buildJob(source domain.Source, daysLimit int) (ports.ScrapeJob, error) {
	if daysLimit <= 0 {
		daysLimit = 9
	}
	job := ports.ScrapeJob{
		Source:       source,
		DaysLimit:    daysLimit,
		RestaurantID: a.restaurantID(),
	}
	switch source {
	case domain.SourceGoogle:
		job.TargetURL = a.cfg.Restaurant.GoogleURL
	case domain.SourceYelp:
		job.TargetURL = a.cfg.Restaurant.YelpURL
		end := time.Now().UTC()
		start := end.AddDate(0, 0, -daysLimit)
		job.StartDate = start.Format(time.RFC3339)
		job.EndDate = end.Format(time.RFC3339)
	default:
		return ports.ScrapeJob{}, fmt.Errorf("unsupported source %q", source)
	}
	if job.TargetURL == "" {
		return ports.ScrapeJob{}, fmt.Errorf("no %s target url configured", source)
	}
	return job, nil
}

func (a *Application) restaurantID() string {
	if a.cfg.Restaurant.ID != "" {
		return a.cfg.Restaurant.ID
	}
	return uuid.NewString()
}

// Advance runs one discrete polling pass over outstanding snapshots.
func (a *Application) Advance(ctx context.Context) (tracker.Summary, error) {
	return a.tracker.AdvanceAll(ctx)
}

// Track polls outstanding snapshots until they settle, then notifies.
func (a *Application) Track(ctx context.Context) (tracker.Summary, error) {
	summary, err := a.poller.Run(ctx)
	a.notify(ctx, fmt.Sprintf("*Snapshot tracking finished*\ncompleted: %d\nfailed: %d\nreviews ingested: %d",
		summary.Completed, summary.Failed, summary.ReviewsIngested))
	return summary, err
}

// Enrich processes every unanalyzed review, then notifies.
func (a *Application) Enrich(ctx context.Context) (processor.Stats, error) {
	stats, err := a.processor.ProcessUnanalyzed(ctx)
	if err != nil {
		return stats, err
	}
	a.notify(ctx, fmt.Sprintf("*Enrichment batch finished*\nsucceeded: %d\nfailed: %d\ntokens: %d in / %d out",
		stats.Succeeded, stats.Failed, stats.InputTokens, stats.OutputTokens))
	return stats, nil
}

// Dedup removes duplicate reviews from the store.
func (a *Application) Dedup(ctx context.Context) (int, error) {
	return a.processor.RemoveDuplicates(ctx)
}

// Report generates the analytics report from current store contents.
func (a *Application) Report(ctx context.Context) (*analytics.Report, error) {
	return a.engine.GenerateReport(ctx)
}

// Stats reports enrichment coverage.
func (a *Application) Stats(ctx context.Context) (processor.ProcessingStats, error) {
	return a.processor.Stats(ctx)
}

// notify delivers a summary when a notifier is configured. Delivery
// failure never fails the batch that produced the summary.
func (a *Application) notify(ctx context.Context, message string) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.PublishSummary(ctx, message); err != nil {
		a.logger.Warn("notification failed", "error", err)
	}
}
