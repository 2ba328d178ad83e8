package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/mediascribe/mediascribe/cmd/mediascribe/transcribe"
)

const (
	// defaults
	ModelSizeDefault     = ModelSizeBase
	TranscribeAPIDefault = TranscribeAPIWhisperCPP
	OutputFormatDefault  = OutputFormatVTT
)

type OutputFormat string

const (
	OutputFormatVTT OutputFormat = "vtt"
	OutputFormatSRT              = "srt"
	OutputFormatTXT              = "txt"
)

type ModelSize string

const (
	ModelSizeTiny   ModelSize = "tiny"
	ModelSizeBase             = "base"
	ModelSizeSmall            = "small"
	ModelSizeMedium           = "medium"
	ModelSizeLarge            = "large"
)

type TranscribeAPI string

const (
	TranscribeAPIWhisperCPP  = "whisper.cpp"
	TranscribeAPIAzureSpeech = "azure"
)

// InputKind classifies the media container by MIME type prefix or, failing
// that, by filename extension.
type InputKind string

const (
	InputKindAudio InputKind = "audio"
	InputKindVideo InputKind = "video"
)

var inputExtensions = map[string]InputKind{
	"mp4":  InputKindVideo,
	"webm": InputKindVideo,
	"mov":  InputKindVideo,
	"avi":  InputKindVideo,
	"mkv":  InputKindVideo,
	"mp3":  InputKindAudio,
	"wav":  InputKindAudio,
	"m4a":  InputKindAudio,
	"ogg":  InputKindAudio,
	"flac": InputKindAudio,
}

// DetectInputKind returns the input kind for the given filename and optional
// MIME type. Unknown inputs are rejected.
func DetectInputKind(name, mimeType string) (InputKind, error) {
	if strings.HasPrefix(mimeType, "video/") {
		return InputKindVideo, nil
	}
	if strings.HasPrefix(mimeType, "audio/") {
		return InputKindAudio, nil
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if kind, ok := inputExtensions[ext]; ok {
		return kind, nil
	}

	return "", fmt.Errorf("unsupported input type %q", ext)
}

type OutputOptions struct {
	Text transcribe.TextOptions
}

type TranscriberConfig struct {
	// input config
	InputFile string
	Language  string

	// engine config
	TranscribeAPI     TranscribeAPI
	ModelSize         ModelSize
	NumThreads        int
	ModelsDir         string
	EnableVAD         bool
	AzureSpeechKey    string
	AzureSpeechRegion string

	// output config
	OutputFormat  OutputFormat
	OutputDir     string
	OutputOptions OutputOptions
}

func (p ModelSize) IsValid() bool {
	switch p {
	case ModelSizeTiny, ModelSizeBase, ModelSizeSmall, ModelSizeMedium, ModelSizeLarge:
		return true
	default:
		return false
	}
}

func (a TranscribeAPI) IsValid() bool {
	switch a {
	case TranscribeAPIWhisperCPP, TranscribeAPIAzureSpeech:
		return true
	default:
		return false
	}
}

func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatVTT, OutputFormatSRT, OutputFormatTXT:
		return true
	default:
		return false
	}
}

func (cfg TranscriberConfig) IsValid() error {
	if cfg == (TranscriberConfig{}) {
		return fmt.Errorf("config cannot be empty")
	}

	if cfg.InputFile == "" {
		return fmt.Errorf("InputFile cannot be empty")
	}
	if _, err := DetectInputKind(cfg.InputFile, ""); err != nil {
		return fmt.Errorf("InputFile parsing failed: %w", err)
	}

	if !cfg.TranscribeAPI.IsValid() {
		return fmt.Errorf("TranscribeAPI value is not valid")
	}
	if cfg.TranscribeAPI == TranscribeAPIAzureSpeech {
		if cfg.AzureSpeechKey == "" {
			return fmt.Errorf("AzureSpeechKey cannot be empty")
		}
		if cfg.AzureSpeechRegion == "" {
			return fmt.Errorf("AzureSpeechRegion cannot be empty")
		}
	}

	if !cfg.ModelSize.IsValid() {
		return fmt.Errorf("ModelSize value is not valid")
	}
	if !cfg.OutputFormat.IsValid() {
		return fmt.Errorf("OutputFormat value is not valid")
	}
	if numCPU := runtime.NumCPU(); cfg.NumThreads < 1 || cfg.NumThreads > numCPU {
		return fmt.Errorf("NumThreads should be in the range [1, %d]", numCPU)
	}

	return cfg.OutputOptions.Text.IsValid()
}

func (cfg *TranscriberConfig) SetDefaults() {
	if cfg.TranscribeAPI == "" {
		cfg.TranscribeAPI = TranscribeAPIDefault
	}

	if cfg.ModelSize == "" {
		cfg.ModelSize = ModelSizeDefault
	}

	if cfg.OutputFormat == "" {
		cfg.OutputFormat = OutputFormatDefault
	}

	if cfg.NumThreads == 0 {
		cfg.NumThreads = max(1, runtime.NumCPU()/2)
	}

	if cfg.ModelsDir == "" {
		cfg.ModelsDir = "./models"
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}

	if cfg.OutputOptions.Text.IsEmpty() {
		cfg.OutputOptions.Text.SetDefaults()
	}
}

func (cfg TranscriberConfig) ToEnv() []string {
	if cfg == (TranscriberConfig{}) {
		return nil
	}

	vars := []string{
		fmt.Sprintf("INPUT_FILE=%s", cfg.InputFile),
		fmt.Sprintf("LANGUAGE=%s", cfg.Language),
		fmt.Sprintf("TRANSCRIBE_API=%s", cfg.TranscribeAPI),
		fmt.Sprintf("MODEL_SIZE=%s", cfg.ModelSize),
		fmt.Sprintf("NUM_THREADS=%d", cfg.NumThreads),
		fmt.Sprintf("MODELS_DIR=%s", cfg.ModelsDir),
		fmt.Sprintf("ENABLE_VAD=%t", cfg.EnableVAD),
		fmt.Sprintf("AZURE_SPEECH_KEY=%s", cfg.AzureSpeechKey),
		fmt.Sprintf("AZURE_SPEECH_REGION=%s", cfg.AzureSpeechRegion),
		fmt.Sprintf("OUTPUT_FORMAT=%s", cfg.OutputFormat),
		fmt.Sprintf("OUTPUT_DIR=%s", cfg.OutputDir),
	}

	vars = append(vars, cfg.OutputOptions.Text.ToEnv()...)

	return vars
}

func FromEnv() (TranscriberConfig, error) {
	var cfg TranscriberConfig

	cfg.InputFile = os.Getenv("INPUT_FILE")
	cfg.Language = os.Getenv("LANGUAGE")
	cfg.TranscribeAPI = TranscribeAPI(os.Getenv("TRANSCRIBE_API"))
	cfg.ModelSize = ModelSize(os.Getenv("MODEL_SIZE"))
	cfg.ModelsDir = os.Getenv("MODELS_DIR")
	cfg.EnableVAD, _ = strconv.ParseBool(os.Getenv("ENABLE_VAD"))
	cfg.AzureSpeechKey = os.Getenv("AZURE_SPEECH_KEY")
	cfg.AzureSpeechRegion = os.Getenv("AZURE_SPEECH_REGION")
	cfg.OutputFormat = OutputFormat(os.Getenv("OUTPUT_FORMAT"))
	cfg.OutputDir = os.Getenv("OUTPUT_DIR")

	if numThreads := os.Getenv("NUM_THREADS"); numThreads != "" {
		n, err := strconv.Atoi(numThreads)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse NUM_THREADS: %w", err)
		}
		cfg.NumThreads = n
	}

	cfg.OutputOptions.Text.FromEnv()

	return cfg, nil
}
