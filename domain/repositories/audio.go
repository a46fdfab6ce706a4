package repositories

import "context"

// AudioConverter abstracts the external transcoder that re-encodes a voice
// recording into the container/codec the recognition service accepts.
// Implementations are stateless; on any transcoder failure no partial
// output is returned.
type AudioConverter interface {
	Convert(ctx context.Context, src []byte, sourceFormat, targetFormat string, bitrateKbps int) ([]byte, error)
}
