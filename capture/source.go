package capture

import (
	"context"

	"github.com/kbukum/voicegate/audio"
)

// BlockHandler receives one captured block. It runs on the source's
// delivery goroutine and must not block.
type BlockHandler func(audio.Block)

// Source is a stream of fixed-size mono blocks.
//
// Open starts delivery and returns once the stream is running. Blocks passed
// to the handler are owned by the receiver. Done is closed when the stream
// ends on its own, such as at the end of a file. After Close returns the
// handler is not called again. Close is safe to call more than once and
// after a failed Open.
type Source interface {
	Open(ctx context.Context, handler BlockHandler) error
	Done() <-chan struct{}
	Close() error
}
