package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/neural-prosthetics/neuromotion/internal/session"
	"github.com/neural-prosthetics/neuromotion/internal/storage"
)

const (
	topBorder    = 24
	leftBorder   = 72
	bottomBorder = 24
	rightBorder  = 16

	rowGap         = 2
	tickMarkHeight = 4
	pixelsPerLabel = 120
)

// ActivityData is a session's records prepared for rendering: per-actuator
// count and angle series over the tick axis, plus the normalization bounds.
type ActivityData struct {
	Records   []session.Record
	Actuators int
	MaxCount  int
	MaxAngle  int
}

// NewActivityData computes rendering bounds over the records.
func NewActivityData(records []session.Record) (*ActivityData, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("session has no records to render")
	}

	data := ActivityData{
		Records:   records,
		Actuators: len(records[0].Counts),
		MaxCount:  1,
		MaxAngle:  180,
	}

	for _, r := range records {
		for _, c := range r.Counts {
			if c > data.MaxCount {
				data.MaxCount = c
			}
		}
		for _, a := range r.Angles {
			if a > data.MaxAngle {
				data.MaxAngle = a
			}
		}
	}

	return &data, nil
}

// Renderer draws a session as a heat strip: two rows per actuator, counts on
// top of angles, one column per tick.
type Renderer struct {
	config *Config
	theme  func(float64) color.Color
}

// NewRenderer creates a renderer for the configured theme and geometry.
func NewRenderer(config *Config) *Renderer {
	return &Renderer{
		config: config,
		theme:  GetColorTheme(config.Theme),
	}
}

// Render produces the annotated plot image.
func (r *Renderer) Render(data *ActivityData, info *storage.SessionInfo) (*image.RGBA, error) {
	stripWidth := len(data.Records) * r.config.TickWidth
	rowPair := 2*r.config.RowHeight + rowGap
	stripHeight := data.Actuators*rowPair + (data.Actuators-1)*rowGap

	fullWidth := leftBorder + stripWidth + rightBorder
	fullHeight := topBorder + stripHeight + bottomBorder

	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	r.drawTitle(img, info, data)
	r.drawTimeAxis(img, data, stripWidth, topBorder+stripHeight)

	for actuator := 0; actuator < data.Actuators; actuator++ {
		top := topBorder + actuator*(rowPair+rowGap)

		r.drawLabel(img, fmt.Sprintf("a%d cnt", actuator), 4, top+r.config.RowHeight/2+4)
		r.drawLabel(img, fmt.Sprintf("a%d ang", actuator), 4, top+r.config.RowHeight+rowGap+r.config.RowHeight/2+4)

		for i, record := range data.Records {
			x0 := leftBorder + i*r.config.TickWidth

			countColor := r.theme(float64(record.Counts[actuator]) / float64(data.MaxCount))
			angleColor := r.theme(float64(record.Angles[actuator]) / float64(data.MaxAngle))

			fillRect(img, x0, top, r.config.TickWidth, r.config.RowHeight, countColor)
			fillRect(img, x0, top+r.config.RowHeight+rowGap, r.config.TickWidth, r.config.RowHeight, angleColor)
		}
	}

	return img, nil
}

func (r *Renderer) drawTitle(img *image.RGBA, info *storage.SessionInfo, data *ActivityData) {
	title := fmt.Sprintf("session %d (%s) %s  ticks=%d  max count=%d",
		info.ID, info.Mode, info.StartTime.Local().Format(time.DateTime), len(data.Records), data.MaxCount)
	r.drawLabel(img, title, leftBorder, 16)
}

func (r *Renderer) drawTimeAxis(img *image.RGBA, data *ActivityData, stripWidth, axisY int) {
	labelEvery := pixelsPerLabel / r.config.TickWidth
	if labelEvery < 1 {
		labelEvery = 1
	}

	for i := 0; i < len(data.Records); i += labelEvery {
		x := leftBorder + i*r.config.TickWidth
		for y := axisY; y < axisY+tickMarkHeight; y++ {
			img.Set(x, y, color.Black)
		}
		r.drawLabel(img, fmt.Sprintf("%.1fs", data.Records[i].T.Seconds()), x-10, axisY+tickMarkHeight+12)
	}
}

func (r *Renderer) drawLabel(img *image.RGBA, text string, x, y int) {
	drawer := font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(text)
}

func fillRect(img *image.RGBA, x, y, w, h int, c color.Color) {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			img.Set(x+dx, y+dy, c)
		}
	}
}
