package stt

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/satriahrh/swara/domain/entities"
)

// GoogleConfig holds audio parameters for the Google Cloud adapter.
// Credentials come from the ambient GOOGLE_APPLICATION_CREDENTIALS setup.
type GoogleConfig struct {
	SampleRate int
	Encoding   string
	Language   string
}

// NewGoogleConfigFromEnv creates a GoogleConfig from environment variables
func NewGoogleConfigFromEnv() GoogleConfig {
	config := GoogleConfig{
		Encoding: os.Getenv("GOOGLE_STT_ENCODING"),
		Language: os.Getenv("GOOGLE_STT_LANGUAGE"),
	}

	if sampleRateStr := os.Getenv("GOOGLE_STT_SAMPLE_RATE"); sampleRateStr != "" {
		if sampleRate, err := strconv.Atoi(sampleRateStr); err == nil && sampleRate > 0 {
			config.SampleRate = sampleRate
		}
	}

	if config.Encoding == "" {
		config.Encoding = "OGG_OPUS"
	}
	if config.Language == "" {
		config.Language = "ru-RU"
	}
	if config.SampleRate == 0 {
		config.SampleRate = 48000
	}

	return config
}

// GoogleSpeechToText implements SpeechToText for Google Cloud, as an
// alternative to the SaluteSpeech provider behind the same port.
type GoogleSpeechToText struct {
	config GoogleConfig
}

// NewGoogleSpeechToText creates a new Google Cloud recognition adapter
func NewGoogleSpeechToText(config GoogleConfig) *GoogleSpeechToText {
	return &GoogleSpeechToText{config: config}
}

// Transcribe converts audio data to text using Google Cloud Speech-to-Text
func (g *GoogleSpeechToText) Transcribe(ctx context.Context, audio []byte) (entities.Transcript, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return entities.Transcript{}, fmt.Errorf("failed to create speech client: %w", err)
	}
	defer client.Close()

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		return entities.Transcript{}, fmt.Errorf("failed to create streaming recognize: %w", err)
	}

	encoding, err := getAudioEncoding(g.config.Encoding)
	if err != nil {
		stream.CloseSend()
		return entities.Transcript{}, err
	}

	recognitionConfig := &speechpb.RecognitionConfig{
		Encoding:        encoding,
		SampleRateHertz: int32(g.config.SampleRate),
		LanguageCode:    g.config.Language,
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config:          recognitionConfig,
				InterimResults:  false,
				SingleUtterance: true,
			},
		},
	}); err != nil {
		stream.CloseSend()
		return entities.Transcript{}, fmt.Errorf("failed to send streaming config: %w", err)
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: audio,
		},
	}); err != nil {
		stream.CloseSend()
		return entities.Transcript{}, fmt.Errorf("failed to send audio data: %w", err)
	}

	if err := stream.CloseSend(); err != nil {
		return entities.Transcript{}, fmt.Errorf("failed to close send stream: %w", err)
	}

	var transcript entities.Transcript
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			return transcript, nil
		}
		if err != nil {
			return entities.Transcript{}, fmt.Errorf("failed to receive response: %w", err)
		}

		for _, result := range resp.Results {
			if result.IsFinal && len(result.Alternatives) > 0 {
				best := result.Alternatives[0]
				transcript.Text = best.Transcript
				transcript.Confidence = float64(best.Confidence)
			}
		}
	}
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "AMR":
		return speechpb.RecognitionConfig_AMR, nil
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
