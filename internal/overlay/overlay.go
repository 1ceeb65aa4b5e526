// Package overlay draws each person's score and repetition count onto the
// camera frame.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/stretchcam/internal/score"
	"github.com/ayusman/stretchcam/internal/stretch"
)

const (
	fontFace      = gocv.FontHersheySimplex
	fontScale     = 1.0
	fontThickness = 2

	// lineHeight is the vertical distance between two text lines in pixels.
	lineHeight = 30
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Annotation places one tracked person on the frame.
type Annotation struct {
	ID int
	// BBox is the normalized bounding box as x1, y1, x2, y2.
	BBox [4]float64
}

// Text is one line of text to draw.
type Text struct {
	Text   string
	Origin image.Point
	Color  color.RGBA
}

// Layout computes the lines drawn for people on a width x height frame and
// the points each of them has earned. Lines sit above the bottom centre of
// each bounding box: the score two lines up, the repetitions one line up.
func Layout(width, height int, people []Annotation, out stretch.Output) ([]Text, map[int]int) {
	texts := make([]Text, 0, 2*len(people))
	points := make(map[int]int, len(people))

	for _, p := range people {
		x1 := int(math.Round(p.BBox[0] * float64(width)))
		x2 := int(math.Round(p.BBox[2] * float64(width)))
		y := int(math.Round(p.BBox[3] * float64(height)))
		x := (x1 + x2) >> 1

		entry := score.For(out, p.ID)
		points[p.ID] = entry.Points

		reps, ok := out.Reps[p.ID]
		if !ok {
			reps = -1
		}

		texts = append(texts,
			Text{
				Text:   "Score: " + entry.Label,
				Origin: image.Pt(x, y-2*lineHeight),
				Color:  scoreColor(entry.Ratio),
			},
			Text{
				Text:   fmt.Sprintf("Reps: %d", reps),
				Origin: image.Pt(x, y-lineHeight),
				Color:  white,
			},
		)
	}
	return texts, points
}

// Draw writes the score and repetition lines for people onto img and returns
// the points of each person drawn.
func Draw(img *gocv.Mat, people []Annotation, out stretch.Output) map[int]int {
	texts, points := Layout(img.Cols(), img.Rows(), people, out)
	for _, t := range texts {
		gocv.PutText(img, t.Text, t.Origin, fontFace, fontScale, t.Color, fontThickness)
	}
	return points
}

// scoreColor fades from red at 0 to green at 1.
func scoreColor(ratio float64) color.RGBA {
	return color.RGBA{
		R: uint8(math.Round(255 * (1 - ratio))),
		G: uint8(math.Round(255 * ratio)),
		A: 255,
	}
}
