package stt_test

import (
	"github.com/satriahrh/swara/adapters/stt"
	"github.com/satriahrh/swara/domain/repositories"
)

var _ repositories.SpeechToText = &stt.GoogleSpeechToText{}
