package container

import (
	"context"
	"fmt"

	"hsedash/adapters/excel"
	"hsedash/adapters/postgres"
	"hsedash/app"
	"hsedash/internal"
	"hsedash/internal/config"
	"hsedash/internal/errors"
	"hsedash/internal/migration"
	"hsedash/internal/normalize"
	"hsedash/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
)

// Container holds the application's dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Sources
	Records   ports.RecordSource
	Locations ports.LocationSource

	// Pipeline
	Normalizer *normalize.Normalizer
	Cache      *normalize.Cache
	Service    *app.DashboardService

	scheduler *cron.Cron
}

// New builds the container from configuration. Findings come from the
// database when DATABASE_URL is set and from DATA_FILE otherwise; a
// LOCATIONS_FILE overrides the database location table.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := cfg.RequireSource(); err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		Logger: internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level)),
	}

	if err := c.initSources(); err != nil {
		return nil, err
	}
	c.initPipeline()

	c.Logger.Info("[Container] initialized (source=%s)", c.describeSource())
	return c, nil
}

func (c *Container) initSources() error {
	cfg := c.Config

	var fileReader *excel.DataReader
	if cfg.Data.File != "" || cfg.Data.LocationsFile != "" {
		fileReader = excel.NewDataReader(cfg.Data.File).
			WithLocations(cfg.Data.LocationsFile).
			WithLogger(c.Logger)
	}

	if cfg.Database.URL == "" {
		c.Records = fileReader
		if cfg.Data.LocationsFile != "" {
			c.Locations = fileReader
		}
		return nil
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return errors.DatabaseError("failed to connect to database", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	c.DB = db

	if cfg.Database.MigrateOnStart {
		if err := migration.NewRunner().Run(context.Background(), db); err != nil {
			return errors.Wrap(err, "database migration failed")
		}
	}

	repo := postgres.NewFindingRepository(db)
	c.Records = repo
	c.Locations = repo
	if cfg.Data.LocationsFile != "" {
		c.Locations = fileReader
	}
	return nil
}

func (c *Container) initPipeline() {
	rules := c.Config.Rules
	c.Normalizer = normalize.NewNormalizer(app.NormalizeOptions(rules), c.Logger)
	c.Cache = normalize.NewCache(c.Normalizer, c.Config.Cache.TTL)
	c.Service = app.NewDashboardService(c.Records, c.Locations, c.Cache, app.SettingsFromRules(rules), c.Logger)
}

// ScheduleReload re-reads the source on a cron schedule such as
// "@every 15m" or "0 6 * * *". An empty schedule does nothing.
func (c *Container) ScheduleReload(schedule string) error {
	if schedule == "" {
		return nil
	}
	if c.scheduler == nil {
		c.scheduler = cron.New()
	}
	_, err := c.scheduler.AddFunc(schedule, func() {
		if _, err := c.Service.Reload(context.Background()); err != nil {
			c.Logger.Error("[Container] scheduled reload failed: %v", err)
		}
	})
	if err != nil {
		return errors.ConfigInvalid(fmt.Sprintf("invalid RELOAD_SCHEDULE %q: %v", schedule, err))
	}
	c.scheduler.Start()
	c.Logger.Info("[Container] source reload scheduled: %s", schedule)
	return nil
}

// Shutdown stops the scheduler and closes the database.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.scheduler != nil {
		stopped := c.scheduler.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return err
		}
	}
	c.Logger.Sync()
	return nil
}

func (c *Container) describeSource() string {
	if c.DB != nil {
		return "postgres"
	}
	return c.Config.Data.File
}
