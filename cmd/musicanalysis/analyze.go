package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/FuadModaresi/music-analysis/internal/analysis"
	"github.com/FuadModaresi/music-analysis/internal/audio"
	"github.com/FuadModaresi/music-analysis/internal/logger"
	"github.com/FuadModaresi/music-analysis/internal/utils"
)

type analyzeOptions struct {
	*rootOptions
	notes     string
	seed      uint64
	text      bool
	midiPath  string
	waveform  int
	ffprobe   bool
	ffprobeWait time.Duration
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a local audio file and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.notes, "notes", string(analysis.ModeRandom), "placeholder note mode (random or fixed)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed for random notes (0 = unseeded)")
	cmd.Flags().BoolVar(&opts.text, "text", false, "print only the transcription text")
	cmd.Flags().StringVar(&opts.midiPath, "midi", "", "also write the notes as a Standard MIDI File")
	cmd.Flags().IntVar(&opts.waveform, "waveform", 0, "number of waveform points to include (0 disables)")
	cmd.Flags().BoolVar(&opts.ffprobe, "ffprobe", false, "fill missing format details with ffprobe")
	cmd.Flags().DurationVar(&opts.ffprobeWait, "ffprobe-timeout", 10*time.Second, "ffprobe timeout")
	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions, path string) error {
	mode, err := analysis.ParseMode(opts.notes)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:  firstNonEmpty(opts.logLevel, "warn"),
		Format: opts.logFormat,
		Output: cmd.ErrOrStderr(),
	})

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var readerOpts []audio.Option
	if opts.ffprobe {
		readerOpts = append(readerOpts, audio.WithFFProbe(audio.NewFFProbe("", opts.ffprobeWait, log)))
	}
	service := analysis.NewService(audio.NewReader(log, readerOpts...), analysis.Settings{
		NoteMode:       mode,
		NoteSeed:       opts.seed,
		WaveformPoints: opts.waveform,
	}, log)

	result, err := service.Analyze(cmd.Context(), &audio.UploadedAudio{
		Data:     data,
		MIMEType: utils.GetAudioContentType(utils.GetFileExtension(path)),
		Size:     int64(len(data)),
		Filename: filepath.Base(path),
	})
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", path, err)
	}

	if opts.midiPath != "" {
		if err := writeMIDIFile(opts.midiPath, result.Notes); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if opts.text {
		_, err = fmt.Fprintln(out, result.Transcription)
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func writeMIDIFile(path string, notes []analysis.Note) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := analysis.WriteMIDI(f, notes); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
