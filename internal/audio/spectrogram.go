package audio

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Compute converts a mono waveform into the fixed-shape mel spectrogram.
// The waveform is resampled to SampleRate if needed, truncated or
// zero-padded on the right to ClipSamples, windowed into STFT frames,
// mapped through a mel filterbank, and converted to decibels relative to
// the clip's peak power, floored at MinDB. The output shape is always
// MelBins x MelFrames or the call errors.
func Compute(samples []float32, sampleRate int) (*Spectrogram, error) {
	if sampleRate != SampleRate {
		samples = resample(samples, sampleRate, SampleRate)
	}
	samples = fitLength(samples, ClipSamples)

	power := stftPower(samples)
	melPower := applyFilterbank(power)

	// Reference for the dB conversion is the clip's own peak mel power.
	var ref float64
	for _, band := range melPower {
		for _, p := range band {
			if p > ref {
				ref = p
			}
		}
	}
	if ref == 0 {
		return nil, ErrSilent
	}

	mel := make([][]float32, MelBins)
	for b := range melPower {
		row := make([]float32, len(melPower[b]))
		for t, p := range melPower[b] {
			db := 10 * math.Log10(math.Max(p, 1e-10)/ref)
			if db < MinDB {
				db = MinDB
			}
			row[t] = float32(db)
		}
		mel[b] = fitFrames(row, MelFrames)
	}

	s := &Spectrogram{Data: mel}
	if bins, frames := s.Shape(); bins != MelBins || frames != MelFrames {
		return nil, ErrShape
	}
	return s, nil
}

// resample converts a waveform between sample rates by linear
// interpolation. Good enough for 30-second preview clips.
func resample(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}
	ratio := float64(srcRate) / float64(dstRate)
	n := int(float64(len(samples)) / ratio)
	out := make([]float32, n)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = samples[j]*(1-frac) + samples[j+1]*frac
	}
	return out
}

// fitLength truncates or zero-pads on the right to exactly n samples.
func fitLength(samples []float32, n int) []float32 {
	if len(samples) >= n {
		return samples[:n]
	}
	out := make([]float32, n)
	copy(out, samples)
	return out
}

// fitFrames truncates or pads a dB row on the right to exactly n frames.
// Padding uses MinDB so padded frames read as silence.
func fitFrames(row []float32, n int) []float32 {
	if len(row) >= n {
		return row[:n]
	}
	out := make([]float32, n)
	copy(out, row)
	for i := len(row); i < n; i++ {
		out[i] = MinDB
	}
	return out
}

// stftPower computes a Hann-windowed short-time power spectrum.
// Returns frames x (FrameSize/2 + 1) power values.
func stftPower(samples []float32) [][]float64 {
	win := hann(FrameSize)
	fft := fourier.NewFFT(FrameSize)

	frames := 1 + (len(samples)-FrameSize)/HopSize
	if len(samples) < FrameSize {
		frames = 1
	}
	spec := make([][]float64, frames)
	buf := make([]float64, FrameSize)
	for i := 0; i < frames; i++ {
		start := i * HopSize
		for k := 0; k < FrameSize; k++ {
			if start+k < len(samples) {
				buf[k] = float64(samples[start+k]) * win[k]
			} else {
				buf[k] = 0
			}
		}
		coeffs := fft.Coefficients(nil, buf)
		row := make([]float64, len(coeffs))
		for f, c := range coeffs {
			re, im := real(c), imag(c)
			row[f] = re*re + im*im
		}
		spec[i] = row
	}
	return spec
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// applyFilterbank maps an STFT power spectrum onto MelBins triangular
// mel-scaled bands. Output is MelBins x frames.
func applyFilterbank(power [][]float64) [][]float64 {
	fftBins := FrameSize/2 + 1
	bank := melFilterbank(MelBins, fftBins)

	out := make([][]float64, MelBins)
	for b := 0; b < MelBins; b++ {
		row := make([]float64, len(power))
		filter := bank[b]
		for t := range power {
			var sum float64
			for f, w := range filter {
				if w != 0 {
					sum += w * power[t][f]
				}
			}
			row[t] = sum
		}
		out[b] = row
	}
	return out
}

// melFilterbank builds triangular filters spaced evenly on the mel scale
// between 0 Hz and Nyquist.
func melFilterbank(bins, fftBins int) [][]float64 {
	melMax := hzToMel(float64(SampleRate) / 2)

	// bins+2 edge points on the mel scale, converted to FFT bin positions.
	edges := make([]float64, bins+2)
	for i := range edges {
		hz := melToHz(melMax * float64(i) / float64(bins+1))
		edges[i] = hz * float64(FrameSize) / float64(SampleRate)
	}

	bank := make([][]float64, bins)
	for b := 0; b < bins; b++ {
		filter := make([]float64, fftBins)
		lower, center, upper := edges[b], edges[b+1], edges[b+2]
		for f := 0; f < fftBins; f++ {
			x := float64(f)
			switch {
			case x > lower && x < center:
				filter[f] = (x - lower) / (center - lower)
			case x >= center && x < upper:
				filter[f] = (upper - x) / (upper - center)
			}
		}
		bank[b] = filter
	}
	return bank
}

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}
