package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/neural-prosthetics/neuromotion/internal/decode"
	"github.com/neural-prosthetics/neuromotion/internal/neural"
	"github.com/neural-prosthetics/neuromotion/internal/session"
	"github.com/neural-prosthetics/neuromotion/internal/storage"
	"github.com/neural-prosthetics/neuromotion/internal/transport"
)

const storageDir = "data"

// Run executes one session per the configuration: live sampling against the
// acquisition backend (synthetic here), or replay of a recorded session.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	source, actuators, err := createSource(config, logger)
	if err != nil {
		return fmt.Errorf("creating data source: %w", err)
	}

	link := createLink(config, actuators, logger)

	options := []func(*session.Controller){
		session.WithLogger(logger),
		session.WithStateFunc(func(s session.State) {
			logger.Debug("session state changed", slog.String("state", s.String()))
		}),
	}

	var store *storage.Store
	if config.Session.Mode == session.ModeLive {
		var sink *storage.Sink
		if store, sink, err = createStorage(ctx, config); err != nil {
			return fmt.Errorf("creating storage: %w", err)
		}
		defer store.Close()

		options = append(options, session.WithSink(sink))
	}

	controller := session.New(session.Config{
		Mode:     config.Session.Mode,
		Cadence:  time.Duration(config.Session.Cadence),
		Duration: time.Duration(config.Session.Duration),
	}, source, link, options...)

	controller.Start()
	if err = controller.Run(ctx); err != nil {
		return err
	}

	logSummary(store, controller, logger)
	return nil
}

// createSource builds the session data source for the configured mode.
func createSource(config *Config, logger *slog.Logger) (session.Source, int, error) {
	mapper := config.Mapper()

	if config.Session.Mode == session.ModeLive {
		assignment := config.Assignment()

		var sourceOptions []func(*neural.Synthetic)
		for ch, rate := range config.Synthetic.Rates {
			sourceOptions = append(sourceOptions, neural.WithRate(ch, rate))
		}
		for _, ch := range config.Synthetic.DeadChannels {
			sourceOptions = append(sourceOptions, neural.WithDeadChannel(ch))
		}

		aggregator := decode.NewAggregator(
			neural.NewSynthetic(sourceOptions...),
			assignment,
			mapper,
			decode.WithLogger(logger),
			decode.WithIgnoredChannels(config.Decode.IgnoreChannels...),
		)

		return session.NewLiveSource(aggregator, time.Duration(config.Session.Window)), aggregator.Actuators(), nil
	}

	records, actuators, err := loadReplay(config, mapper)
	if err != nil {
		return nil, 0, err
	}

	source := session.NewRecordedSource(records, actuators)
	logger.Info("replay loaded",
		slog.Int("records", source.Len()),
		slog.Duration("length", source.Duration()))

	return source, actuators, nil
}

// loadReplay reads the recorded session from CSV or from a stored session.
func loadReplay(config *Config, mapper decode.Mapper) ([]session.Record, int, error) {
	if config.Session.ReplayFile != "" {
		return storage.ReadCSVFile(config.Session.ReplayFile, mapper)
	}

	store := storage.New(config.Session.ReplayDB)
	defer store.Close()

	records, err := store.SessionRecords(context.Background(), config.Session.ReplaySession)
	if err != nil {
		return nil, 0, fmt.Errorf("loading session %d from %s: %w", config.Session.ReplaySession, config.Session.ReplayDB, err)
	}
	if len(records) == 0 {
		return nil, 0, fmt.Errorf("session %d in %s has no records", config.Session.ReplaySession, config.Session.ReplayDB)
	}

	return records, len(records[0].Counts), nil
}

// createLink builds the transport commander, or a headless stand-in when the
// serial link is disabled by configuration.
func createLink(config *Config, actuators int, logger *slog.Logger) session.Commander {
	if !config.Transport.Enabled {
		return headlessLink{}
	}

	options := []func(*transport.Client){transport.WithLogger(logger)}
	if config.Transport.SettleDelay > 0 {
		options = append(options, transport.WithSettleDelay(time.Duration(config.Transport.SettleDelay)))
	}
	if config.Transport.BaudRate > 0 {
		options = append(options, transport.WithBaudRate(config.Transport.BaudRate))
	}

	return transport.NewClient(config.Transport.Port, actuators, options...)
}

// createStorage opens a timestamped session database in the data directory
// and registers the new session.
func createStorage(ctx context.Context, config *Config) (*storage.Store, *storage.Sink, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	dir := config.Storage.DataDirectory
	if dir == "" {
		dir = storageDir
	}
	dbDir := filepath.Join(wd, dir)

	stat, err := os.Stat(dbDir)
	if err != nil {
		return nil, nil, fmt.Errorf("storage directory '%s': %w", dbDir, err)
	}
	if !stat.IsDir() {
		return nil, nil, fmt.Errorf("invalid storage directory '%s'", dbDir)
	}

	dbPath := filepath.Join(dbDir, fmt.Sprintf("session_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	store := storage.New(dbPath)

	sessionID, err := store.CreateSession(ctx, string(session.ModeLive), config)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("creating session: %w", err)
	}

	return store, storage.NewSink(store, sessionID), nil
}

// logSummary reports what the session produced.
func logSummary(store *storage.Store, controller *session.Controller, logger *slog.Logger) {
	attrs := []any{
		slog.String("records", humanize.Comma(int64(controller.Log().Len()))),
		slog.Duration("clock", controller.Clock()),
	}

	if store != nil {
		if stat, err := os.Stat(store.Path()); err == nil {
			attrs = append(attrs,
				slog.String("database", store.Path()),
				slog.String("size", humanize.Bytes(uint64(stat.Size()))))
		}
	}

	logger.Info("session finished", attrs...)
}

// headlessLink satisfies the commander surface with no hardware attached.
type headlessLink struct{}

func (headlessLink) Connect() error    { return nil }
func (headlessLink) Connected() bool   { return false }
func (headlessLink) Send([]int) error  { return nil }
func (headlessLink) Disconnect() error { return nil }
