package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mediascribe/mediascribe/cmd/mediascribe/config"
	"github.com/mediascribe/mediascribe/cmd/mediascribe/pipeline"
	"github.com/mediascribe/mediascribe/cmd/mediascribe/transcribe"
)

func slogReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.SourceKey {
		source := a.Value.Any().(*slog.Source)
		source.File = filepath.Base(source.File)
	}
	return a
}

// outputPath derives the transcript filename from the input filename,
// e.g. talk.mp4 -> talk.vtt.
func outputPath(cfg config.TranscriberConfig) string {
	base := filepath.Base(cfg.InputFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(cfg.OutputDir, fmt.Sprintf("%s.%s", name, cfg.OutputFormat))
}

func writeResult(w io.Writer, cfg config.TranscriberConfig, res transcribe.Result) error {
	switch cfg.OutputFormat {
	case config.OutputFormatSRT:
		return res.SRT(w)
	case config.OutputFormatVTT:
		return res.WebVTT(w)
	case config.OutputFormatTXT:
		return res.WriteText(w, cfg.OutputOptions.Text)
	default:
		return fmt.Errorf("output format %q not implemented", cfg.OutputFormat)
	}
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   true,
		Level:       slog.LevelDebug,
		ReplaceAttr: slogReplaceAttr,
	}))
	slog.SetDefault(logger)

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("failed to load config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	flag.StringVar(&cfg.InputFile, "input", cfg.InputFile, "path to the media file to transcribe")
	flag.StringVar(&cfg.Language, "language", cfg.Language, "transcription language (default autodetection)")
	flag.StringVar((*string)(&cfg.TranscribeAPI), "api", string(cfg.TranscribeAPI), "recognition engine (whisper.cpp or azure)")
	flag.StringVar((*string)(&cfg.ModelSize), "model", string(cfg.ModelSize), "whisper model size (tiny, base, small, medium, large)")
	flag.IntVar(&cfg.NumThreads, "threads", cfg.NumThreads, "number of inference threads")
	flag.StringVar(&cfg.ModelsDir, "models-dir", cfg.ModelsDir, "directory to store downloaded models")
	flag.BoolVar(&cfg.EnableVAD, "vad", cfg.EnableVAD, "skip inference when no speech is detected")
	flag.StringVar((*string)(&cfg.OutputFormat), "format", string(cfg.OutputFormat), "transcript format (vtt, srt or txt)")
	flag.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory to write the transcript to")
	flag.Parse()

	cfg.SetDefaults()
	if err := cfg.IsValid(); err != nil {
		slog.Error("failed to validate config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	transcriber, err := pipeline.NewTranscriber(cfg, pipeline.Callbacks{
		OnProgress: func(p pipeline.Progress) {
			if p.Percent >= 0 {
				slog.Info(p.Message, slog.String("status", string(p.Status)), slog.Float64("percent", p.Percent))
			} else {
				slog.Info(p.Message, slog.String("status", string(p.Status)))
			}
		},
		OnPartial: func(text string) {
			slog.Debug("interim result", slog.String("text", text))
		},
	})
	if err != nil {
		slog.Error("failed to create transcriber", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := transcriber.Destroy(); err != nil {
			slog.Error("failed to destroy transcriber", slog.String("err", err.Error()))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		slog.Info("received signal, cancelling transcription")
		transcriber.Cancel()
	}()

	slog.Info("starting transcription", slog.String("input", cfg.InputFile))

	res, err := transcriber.Transcribe(context.Background())
	if err != nil {
		if pipeline.IsCancelled(err) {
			slog.Info("transcription cancelled, exiting")
			os.Exit(0)
		}
		slog.Error("transcription failed",
			slog.String("kind", string(pipeline.KindOf(err))),
			slog.String("err", err.Error()))
		os.Exit(1)
	}

	outPath := outputPath(cfg)
	f, err := os.Create(outPath)
	if err != nil {
		slog.Error("failed to create output file", slog.String("err", err.Error()))
		os.Exit(1)
	}
	if err := writeResult(f, cfg, res); err != nil {
		f.Close()
		slog.Error("failed to write transcript", slog.String("err", err.Error()))
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		slog.Error("failed to close output file", slog.String("err", err.Error()))
		os.Exit(1)
	}

	slog.Info("transcription complete",
		slog.String("output", outPath),
		slog.String("language", res.Language),
		slog.Int("segments", len(res.Segments)),
		slog.Float64("duration", res.Duration))
}
