package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"

	"github.com/neural-prosthetics/neuromotion/internal/storage"
)

// Run renders one stored session to an image file.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.New(config.DBPath)
	defer store.Close()

	info, err := store.Session(ctx, config.SessionID)
	if err != nil {
		return fmt.Errorf("loading session %d: %w", config.SessionID, err)
	}

	records, err := store.SessionRecords(ctx, config.SessionID)
	if err != nil {
		return fmt.Errorf("loading records: %w", err)
	}

	data, err := NewActivityData(records)
	if err != nil {
		return err
	}

	logger.Info("rendering session",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(config.Theme)),
			slog.Int("actuators", data.Actuators),
			slog.Int("ticks", len(data.Records)),
		))

	img, err := NewRenderer(config).Render(data, info)
	if err != nil {
		return fmt.Errorf("rendering session: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: 98})
	default:
		err = png.Encode(out, img)
	}
	return err
}
