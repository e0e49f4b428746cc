package db

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/railgo/internal/protocol"
)

// Appender is the sink of the Recorder; satisfied by *ActionRepository.
type Appender interface {
	Append(ctx context.Context, gameID int64, code uint32, message []byte, playerID string) error
}

const recorderQueueSize = 1024

type record struct {
	gameID   int64
	code     protocol.Action
	message  []byte
	playerID string
}

// Recorder decouples game ticks from action-log writes: Record enqueues and
// returns immediately, a single background goroutine drains to the
// Appender preserving order. A full queue drops the record with an error
// log rather than stalling the tick.
type Recorder struct {
	sink    Appender
	queue   chan record
	done    chan struct{}
	once    sync.Once
	timeout time.Duration
}

// NewRecorder starts the drain goroutine.
func NewRecorder(sink Appender) *Recorder {
	r := &Recorder{
		sink:    sink,
		queue:   make(chan record, recorderQueueSize),
		done:    make(chan struct{}),
		timeout: 5 * time.Second,
	}
	go r.run()
	return r
}

// Record enqueues one action-log record.
func (r *Recorder) Record(gameID int64, code protocol.Action, message []byte, playerID string) {
	select {
	case r.queue <- record{gameID: gameID, code: code, message: message, playerID: playerID}:
	default:
		slog.Error("action log queue is full, dropping record",
			"game_id", gameID, "code", code.String())
	}
}

// Close stops accepting records and flushes the queue.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.queue)
		<-r.done
	})
}

func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := r.sink.Append(ctx, rec.gameID, uint32(rec.code), rec.message, rec.playerID)
		cancel()
		if err != nil {
			slog.Error("failed to append action record",
				"game_id", rec.gameID, "code", rec.code.String(), "err", err)
		}
	}
}
