package http

import (
	"context"
	"io"
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/octree/models"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

// The number of frames buffered for a slow client. Frames are dropped once
// the buffer is full.
const frameBufferSize = 32

// HandleFrames streams the stats of every dispatched frame as JSON text
// messages until the client disconnects or ctx is done. Clients from any
// origin are accepted.
func HandleFrames(ctx context.Context, world World) websocket.Server {
	return websocket.Server{
		Handshake: func(c *websocket.Config, r *http.Request) error {
			return nil
		},
		Handler: func(conn *websocket.Conn) {
			streamFrames(ctx, conn, world)
		},
	}
}

func streamFrames(ctx context.Context, conn *websocket.Conn, world World) {
	defer conn.Close()

	clientID := uuid.NewString()
	frames := make(chan models.FrameStats, frameBufferSize)

	cancel := world.HandleFrame(func(stats models.FrameStats) {
		select {
		case frames <- stats:
		default:
		}
	})
	defer cancel()

	// Reading detects the client closing the connection.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		io.Copy(io.Discard, conn)
	}()

	logs.WithTag("client_id", clientID).Info("frame stream opened")
	sent := 0

	defer func() {
		logs.WithTag("client_id", clientID).
			WithTag("sent", sent).
			Info("frame stream closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-closed:
			return

		case stats := <-frames:
			b, err := json.Marshal(stats)
			if err != nil {
				logs.Warn(errors.New("encoding frame failed").Wrap(err))
				return
			}

			if err := websocket.Message.Send(conn, string(b)); err != nil {
				logs.WithTag("client_id", clientID).
					WithTag("error", err.Error()).
					Debug("sending frame failed")
				return
			}
			sent++
		}
	}
}
