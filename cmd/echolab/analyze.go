package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/echolab/measure/analysis"
	"github.com/cwbudde/echolab/wavio"
)

func runAnalyze(args []string) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	ref := fs.String("ref", "", "reference WAV file; prints ERLE of each file against it")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: echolab analyze [-ref before.wav] file.wav ...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	var refClip *wavio.Clip
	if *ref != "" {
		c, err := readClip(*ref)
		if err != nil {
			fmt.Fprintf(os.Stderr, "echolab: %v\n", err)
			return 1
		}
		refClip = c
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "file\trate\tsamples\trms dBFS\tpeak dBFS\tcrest dB\tdominant Hz\terle dB")
	status := 0
	for _, path := range fs.Args() {
		clip, err := readClip(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "echolab: %v\n", err)
			status = 1
			continue
		}
		rep, err := analysis.Analyze(clip.Samples, float64(clip.SampleRate))
		if err != nil {
			fmt.Fprintf(os.Stderr, "echolab: %s: %v\n", path, err)
			status = 1
			continue
		}
		erle := "-"
		if refClip != nil {
			if v, err := analysis.ERLE(refClip.Samples, clip.Samples); err == nil {
				erle = fmt.Sprintf("%.2f", v)
			}
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.1f\t%s\n",
			path, clip.SampleRate, rep.Samples, rep.RMSdBFS, rep.PeakdBFS, rep.CrestFactordB, rep.DominantHz, erle)
	}
	if err := tw.Flush(); err != nil {
		return 1
	}
	return status
}

func readClip(path string) (*wavio.Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	clip, err := wavio.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}
