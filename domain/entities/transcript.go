package entities

// Transcript is the outcome of one recognition call. Text may be empty:
// that is the valid "no speech detected" result, not a failure.
type Transcript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Empty reports whether the recognizer found no speech in the recording.
func (t Transcript) Empty() bool {
	return t.Text == ""
}

// VoiceNote is a single voice recording submitted by a client, together
// with the metadata the gateway needs to transcode and transcribe it.
type VoiceNote struct {
	DeviceID   string `json:"device_id"`
	SessionID  string `json:"session_id"`
	Format     string `json:"format"` // container/codec as recorded, e.g. "ogg", "amr"
	DurationMs int    `json:"duration_ms"`
	Data       []byte `json:"-"`
}
