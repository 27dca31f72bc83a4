package app

import (
	"flag"
	"fmt"
	"strings"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"
)

type ImageFormat string

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

// Config holds the rendering options for one session plot.
type Config struct {
	DBPath     string
	SessionID  int64
	OutputFile string
	Format     ImageFormat
	Theme      ColorTheme
	TickWidth  int // pixels per tick column
	RowHeight  int // pixels per actuator row
}

func NewConfig() *Config {
	return &Config{
		Format:    ImagePNG,
		Theme:     ClassicTheme,
		TickWidth: 2,
		RowHeight: 24,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var imageFormat, theme string
	flag.StringVar(&c.DBPath, "db", "", "Path to the session database file")
	flag.Int64Var(&c.SessionID, "s", 1, "Session ID")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output file")
	flag.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	flag.StringVar(&theme, "theme", string(ClassicTheme), "Color theme. [classic, grayscale, thermal]")
	flag.IntVar(&c.TickWidth, "tick-width", c.TickWidth, "Pixels per tick column")
	flag.IntVar(&c.RowHeight, "row-height", c.RowHeight, "Pixels per actuator row")
	flag.Parse()

	c.Format = ImageFormat(strings.ToLower(imageFormat))
	c.Theme = ColorTheme(strings.ToLower(theme))

	return c, c.Validate()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("no database file provided")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("no output file provided")
	}
	if _, ok := validImageFormats[c.Format]; !ok {
		return fmt.Errorf("invalid image format '%s'", c.Format)
	}
	if _, ok := validThemes[c.Theme]; !ok {
		return fmt.Errorf("invalid color theme '%s'", c.Theme)
	}
	if c.TickWidth < 1 || c.RowHeight < 8 {
		return fmt.Errorf("invalid geometry: tick-width >= 1 and row-height >= 8 required")
	}
	return nil
}
