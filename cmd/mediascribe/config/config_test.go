package config

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectInputKind(t *testing.T) {
	tcs := []struct {
		name     string
		fileName string
		mimeType string
		expected InputKind
		err      bool
	}{
		{name: "video mime", fileName: "clip.bin", mimeType: "video/mp4", expected: InputKindVideo},
		{name: "audio mime", fileName: "clip.bin", mimeType: "audio/mpeg", expected: InputKindAudio},
		{name: "mp4 extension", fileName: "clip.MP4", expected: InputKindVideo},
		{name: "mkv extension", fileName: "clip.mkv", expected: InputKindVideo},
		{name: "wav extension", fileName: "take.wav", expected: InputKindAudio},
		{name: "m4a extension", fileName: "take.m4a", expected: InputKindAudio},
		{name: "flac extension", fileName: "take.flac", expected: InputKindAudio},
		{name: "unsupported", fileName: "notes.txt", err: true},
		{name: "no extension", fileName: "blob", err: true},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			kind, err := DetectInputKind(tc.fileName, tc.mimeType)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, kind)
		})
	}
}

func TestConfigIsValid(t *testing.T) {
	tcs := []struct {
		name          string
		cfg           TranscriberConfig
		expectedError string
	}{
		{
			name:          "empty config",
			cfg:           TranscriberConfig{},
			expectedError: "config cannot be empty",
		},
		{
			name: "missing InputFile",
			cfg: TranscriberConfig{
				TranscribeAPI: TranscribeAPIWhisperCPP,
			},
			expectedError: "InputFile cannot be empty",
		},
		{
			name: "unsupported InputFile",
			cfg: TranscriberConfig{
				InputFile: "notes.txt",
			},
			expectedError: "InputFile parsing failed",
		},
		{
			name: "invalid TranscribeAPI",
			cfg: TranscriberConfig{
				InputFile:     "take.wav",
				TranscribeAPI: "nope",
			},
			expectedError: "TranscribeAPI value is not valid",
		},
		{
			name: "azure without credentials",
			cfg: TranscriberConfig{
				InputFile:     "take.wav",
				TranscribeAPI: TranscribeAPIAzureSpeech,
			},
			expectedError: "AzureSpeechKey cannot be empty",
		},
		{
			name: "invalid ModelSize",
			cfg: TranscriberConfig{
				InputFile:     "take.wav",
				TranscribeAPI: TranscribeAPIWhisperCPP,
				ModelSize:     "gigantic",
			},
			expectedError: "ModelSize value is not valid",
		},
		{
			name: "invalid OutputFormat",
			cfg: TranscriberConfig{
				InputFile:     "take.wav",
				TranscribeAPI: TranscribeAPIWhisperCPP,
				ModelSize:     ModelSizeBase,
				OutputFormat:  "pdf",
			},
			expectedError: "OutputFormat value is not valid",
		},
		{
			name: "invalid NumThreads",
			cfg: TranscriberConfig{
				InputFile:     "take.wav",
				TranscribeAPI: TranscribeAPIWhisperCPP,
				ModelSize:     ModelSizeBase,
				OutputFormat:  OutputFormatVTT,
				NumThreads:    runtime.NumCPU() + 1,
			},
			expectedError: "NumThreads should be in the range",
		},
		{
			name: "valid",
			cfg: func() TranscriberConfig {
				var cfg TranscriberConfig
				cfg.InputFile = "take.wav"
				cfg.SetDefaults()
				return cfg
			}(),
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.IsValid()
			if tc.expectedError != "" {
				require.ErrorContains(t, err, tc.expectedError)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfigSetDefaults(t *testing.T) {
	var cfg TranscriberConfig
	cfg.SetDefaults()

	require.Equal(t, TranscribeAPIDefault, string(cfg.TranscribeAPI))
	require.Equal(t, ModelSizeDefault, string(cfg.ModelSize))
	require.Equal(t, OutputFormatDefault, cfg.OutputFormat)
	require.GreaterOrEqual(t, cfg.NumThreads, 1)
	require.Equal(t, "./models", cfg.ModelsDir)
	require.Equal(t, ".", cfg.OutputDir)
	require.Equal(t, 2000, cfg.OutputOptions.Text.CompactOptions.SilenceThresholdMs)
}

func TestConfigFromEnv(t *testing.T) {
	os.Setenv("INPUT_FILE", "talk.mp4")
	os.Setenv("LANGUAGE", "en-US")
	os.Setenv("TRANSCRIBE_API", "azure")
	os.Setenv("MODEL_SIZE", "small")
	os.Setenv("NUM_THREADS", "1")
	os.Setenv("ENABLE_VAD", "true")
	os.Setenv("AZURE_SPEECH_KEY", "key")
	os.Setenv("AZURE_SPEECH_REGION", "westus")
	os.Setenv("OUTPUT_FORMAT", "srt")
	defer func() {
		for _, k := range []string{"INPUT_FILE", "LANGUAGE", "TRANSCRIBE_API", "MODEL_SIZE",
			"NUM_THREADS", "ENABLE_VAD", "AZURE_SPEECH_KEY", "AZURE_SPEECH_REGION", "OUTPUT_FORMAT"} {
			os.Unsetenv(k)
		}
	}()

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "talk.mp4", cfg.InputFile)
	require.Equal(t, "en-US", cfg.Language)
	require.Equal(t, TranscribeAPI("azure"), cfg.TranscribeAPI)
	require.Equal(t, ModelSize("small"), cfg.ModelSize)
	require.Equal(t, 1, cfg.NumThreads)
	require.True(t, cfg.EnableVAD)
	require.Equal(t, OutputFormat("srt"), cfg.OutputFormat)

	cfg.SetDefaults()
	require.NoError(t, cfg.IsValid())
}

func TestConfigToEnv(t *testing.T) {
	var cfg TranscriberConfig
	cfg.InputFile = "take.wav"
	cfg.SetDefaults()

	vars := cfg.ToEnv()
	require.Contains(t, vars, "INPUT_FILE=take.wav")
	require.Contains(t, vars, "TRANSCRIBE_API=whisper.cpp")
	require.Contains(t, vars, "OUTPUT_FORMAT=vtt")
}
