package core

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GrayLevels is the number of histogram bins.
const GrayLevels = 256

// Histogram counts 8-bit gray levels.
type Histogram [GrayLevels]float64

var levels = func() []float64 {
	l := make([]float64, GrayLevels)
	for i := range l {
		l[i] = float64(i)
	}
	return l
}()

// GrayHistogram accumulates the luminance of every pixel of every image.
func GrayHistogram(images ...image.Image) Histogram {
	var h Histogram
	for _, img := range images {
		if img == nil {
			continue
		}
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
				h[g.Y]++
			}
		}
	}
	return h
}

// ComputeThresholds runs the four automatic thresholding methods and
// returns their results as normalized gray values in [0,1].
func ComputeThresholds(h Histogram) ThresholdPresets {
	norm := func(t int) float32 { return float32(t) / float32(GrayLevels-1) }
	return ThresholdPresets{
		Otsu:    norm(OtsuThreshold(h)),
		Isodata: norm(IsodataThreshold(h)),
		Yen:     norm(YenThreshold(h)),
		Li:      norm(LiThreshold(h)),
	}
}

// meanRange is the histogram-weighted mean of levels[lo:hi]. ok is false
// for empty ranges.
func meanRange(h *Histogram, lo, hi int) (mean float64, ok bool) {
	if lo >= hi || floats.Sum(h[lo:hi]) == 0 {
		return 0, false
	}
	return stat.Mean(levels[lo:hi], h[lo:hi]), true
}

// OtsuThreshold maximizes the between-class variance.
func OtsuThreshold(h Histogram) int {
	total := floats.Sum(h[:])
	if total == 0 {
		return 0
	}
	best, bestVar := 0, -1.0
	w0 := 0.0
	for t := 0; t < GrayLevels-1; t++ {
		w0 += h[t]
		w1 := total - w0
		if w0 == 0 || w1 == 0 {
			continue
		}
		m0, _ := meanRange(&h, 0, t+1)
		m1, _ := meanRange(&h, t+1, GrayLevels)
		v := w0 * w1 * (m0 - m1) * (m0 - m1)
		if v > bestVar {
			best, bestVar = t, v
		}
	}
	return best
}

// IsodataThreshold iterates t = (mean below + mean above) / 2.
func IsodataThreshold(h Histogram) int {
	t, ok := meanRange(&h, 0, GrayLevels)
	if !ok {
		return 0
	}
	for i := 0; i < GrayLevels; i++ {
		ti := int(t)
		m0, ok0 := meanRange(&h, 0, ti+1)
		m1, ok1 := meanRange(&h, ti+1, GrayLevels)
		if !ok0 || !ok1 {
			break
		}
		next := (m0 + m1) / 2
		if math.Abs(next-t) < 0.5 {
			t = next
			break
		}
		t = next
	}
	return int(t)
}

// YenThreshold maximizes the entropic correlation of the two classes.
func YenThreshold(h Histogram) int {
	total := floats.Sum(h[:])
	if total == 0 {
		return 0
	}
	p := make([]float64, GrayLevels)
	floats.ScaleTo(p, 1/total, h[:])

	cum := make([]float64, GrayLevels)
	floats.CumSum(cum, p)
	sq := make([]float64, GrayLevels)
	floats.MulTo(sq, p, p)
	cumSq := make([]float64, GrayLevels)
	floats.CumSum(cumSq, sq)
	totalSq := cumSq[GrayLevels-1]

	best, bestCrit := 0, math.Inf(-1)
	for t := 0; t < GrayLevels-1; t++ {
		below := cumSq[t]
		above := totalSq - below
		pt := cum[t]
		if below <= 0 || above <= 0 || pt <= 0 || pt >= 1 {
			continue
		}
		crit := math.Log(pt*(1-pt)*pt*(1-pt)) - math.Log(below*above)
		if crit > bestCrit {
			best, bestCrit = t, crit
		}
	}
	return best
}

// LiThreshold minimizes the cross entropy between the image and its
// thresholded version. Levels are shifted by one to keep the logarithms
// finite.
func LiThreshold(h Histogram) int {
	mean, ok := meanRange(&h, 0, GrayLevels)
	if !ok {
		return 0
	}
	t := mean + 1
	for i := 0; i < GrayLevels; i++ {
		ti := int(t - 1)
		mb, okb := meanRange(&h, 0, ti+1)
		mf, okf := meanRange(&h, ti+1, GrayLevels)
		if !okb || !okf {
			break
		}
		mb, mf = mb+1, mf+1
		next := (mf - mb) / (math.Log(mf) - math.Log(mb))
		if math.Abs(next-t) < 0.5 {
			t = next
			break
		}
		t = next
	}
	return int(t - 1)
}
