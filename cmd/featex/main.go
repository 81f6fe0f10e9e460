// Command featex extracts audio features from a sound file and prints
// per-feature summaries.
//
// Usage:
//
//	featex [flags] file.wav
//
// Examples:
//
//	featex -feature mfcc track.wav
//	featex -feature centroid -nfft 1024 -mono voice.ogg
//	featex -feature tempo -rate 22050 drums.mp3
//	featex -list
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/cwbudde/algo-feat/audioio"
	"github.com/cwbudde/algo-feat/beat"
	"github.com/cwbudde/algo-feat/dsp/stft"
	"github.com/cwbudde/algo-feat/feature"
	"github.com/cwbudde/algo-feat/ndarray"
	"github.com/cwbudde/algo-feat/onset"
)

type extractor struct {
	name string
	desc string
	run  func(y *ndarray.Array[float64], sr float64, nfft, hop int) (*ndarray.Array[float64], error)
}

var registry = []extractor{
	{"melspec", "mel-scaled power spectrogram", func(y *ndarray.Array[float64], sr float64, nfft, hop int) (*ndarray.Array[float64], error) {
		return feature.MelSpectrogram(y, stftOpts(sr, nfft, hop)...)
	}},
	{"mfcc", "mel-frequency cepstral coefficients", func(y *ndarray.Array[float64], sr float64, nfft, hop int) (*ndarray.Array[float64], error) {
		return feature.MFCC(y, stftOpts(sr, nfft, hop)...)
	}},
	{"chroma", "pitch-class energy profile", func(y *ndarray.Array[float64], sr float64, nfft, hop int) (*ndarray.Array[float64], error) {
		return feature.ChromaSTFT(y, stftOpts(sr, nfft, hop)...)
	}},
	{"centroid", "spectral centroid in Hz", func(y *ndarray.Array[float64], sr float64, nfft, hop int) (*ndarray.Array[float64], error) {
		s, err := magnitude(y, nfft, hop)
		if err != nil {
			return nil, err
		}
		return feature.SpectralCentroid(s, nil, feature.WithSampleRate(sr))
	}},
	{"rolloff", "85% spectral rolloff in Hz", func(y *ndarray.Array[float64], sr float64, nfft, hop int) (*ndarray.Array[float64], error) {
		s, err := magnitude(y, nfft, hop)
		if err != nil {
			return nil, err
		}
		return feature.SpectralRolloff(s, nil, feature.WithSampleRate(sr))
	}},
	{"flatness", "spectral flatness (0 tonal, 1 noisy)", func(y *ndarray.Array[float64], sr float64, nfft, hop int) (*ndarray.Array[float64], error) {
		s, err := magnitude(y, nfft, hop)
		if err != nil {
			return nil, err
		}
		return feature.SpectralFlatness(s, feature.WithSampleRate(sr))
	}},
	{"rms", "root-mean-square frame energy", func(y *ndarray.Array[float64], sr float64, nfft, hop int) (*ndarray.Array[float64], error) {
		return feature.RMS(y, feature.WithFrameLength(nfft), feature.WithHopLength(hop))
	}},
	{"zcr", "zero crossing rate per frame", func(y *ndarray.Array[float64], sr float64, nfft, hop int) (*ndarray.Array[float64], error) {
		return feature.ZeroCrossingRate(y, feature.WithFrameLength(nfft), feature.WithHopLength(hop))
	}},
	{"onset", "spectral-flux onset envelope", func(y *ndarray.Array[float64], sr float64, nfft, hop int) (*ndarray.Array[float64], error) {
		return onset.StrengthFromSignal(y, onset.WithFeatureOptions(stftOpts(sr, nfft, hop)...))
	}},
	{"tempo", "dominant tempo in BPM", func(y *ndarray.Array[float64], sr float64, nfft, hop int) (*ndarray.Array[float64], error) {
		env, err := onset.StrengthFromSignal(y, onset.WithFeatureOptions(stftOpts(sr, nfft, hop)...))
		if err != nil {
			return nil, err
		}
		return beat.Tempo(env, beat.WithFrameRate(sr/float64(hop)))
	}},
}

func stftOpts(sr float64, nfft, hop int) []feature.Option {
	return []feature.Option{
		feature.WithSampleRate(sr),
		feature.WithSTFT(stft.WithNFFT(nfft), stft.WithHopLength(hop)),
	}
}

func magnitude(y *ndarray.Array[float64], nfft, hop int) (*ndarray.Array[float64], error) {
	d, err := stft.STFT(y, stft.WithNFFT(nfft), stft.WithHopLength(hop))
	if err != nil {
		return nil, err
	}
	return stft.Magnitude(d), nil
}

func main() {
	var (
		featName = flag.String("feature", "mfcc", "feature to extract")
		nfft     = flag.Int("nfft", 2048, "FFT size (power of two)")
		hop      = flag.Int("hop", 512, "hop length in samples")
		rate     = flag.Float64("rate", 0, "resample to this rate before analysis (0 keeps native)")
		mono     = flag.Bool("mono", false, "downmix to mono before analysis")
		list     = flag.Bool("list", false, "list available features and exit")
	)
	flag.Parse()

	if *list {
		printRegistry()
		return
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: featex [flags] file")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ext := lookup(*featName)
	if ext == nil {
		fmt.Fprintf(os.Stderr, "featex: unknown feature %q (try -list)\n", *featName)
		os.Exit(2)
	}

	var loadOpts []audioio.Option
	if *mono {
		loadOpts = append(loadOpts, audioio.WithMono())
	}
	if *rate > 0 {
		loadOpts = append(loadOpts, audioio.WithTargetRate(*rate))
	}
	y, sr, err := audioio.Load(flag.Arg(0), loadOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "featex: %v\n", err)
		os.Exit(1)
	}

	out, err := ext.run(y, float64(sr), *nfft, *hop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "featex: %v\n", err)
		os.Exit(1)
	}
	printSummary(ext.name, sr, y, out)
}

func lookup(name string) *extractor {
	for i := range registry {
		if registry[i].name == name {
			return &registry[i]
		}
	}
	return nil
}

func printRegistry() {
	names := make([]string, len(registry))
	for i, e := range registry {
		names[i] = e.name
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%s\n", name, lookup(name).desc)
	}
	w.Flush()
}

func printSummary(name string, sr int, y, out *ndarray.Array[float64]) {
	data := out.Data()
	minV, maxV := math.Inf(1), math.Inf(-1)
	var sum float64
	for _, v := range data {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
		sum += v
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "feature\t%s\n", name)
	fmt.Fprintf(w, "sample rate\t%d Hz\n", sr)
	fmt.Fprintf(w, "input shape\t%v\n", y.Shape())
	fmt.Fprintf(w, "output shape\t%v\n", out.Shape())
	fmt.Fprintf(w, "min\t%.6g\n", minV)
	fmt.Fprintf(w, "max\t%.6g\n", maxV)
	fmt.Fprintf(w, "mean\t%.6g\n", sum/float64(len(data)))
	w.Flush()
}
