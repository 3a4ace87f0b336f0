package game

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	clientSendBuffer = 256
	pingPeriod       = 54 * time.Second

	frameRate  = rate.Limit(5)
	frameBurst = 10
)

// client binds one live socket to a registered identity. The room only ever
// talks to it through the Client interface; the pumps below own the socket.
type client struct {
	playerId string
	session  NetworkSession
	room     RoomHandle

	outbox      chan []byte
	quit        chan struct{}
	closeOnce   sync.Once
	closeCode   int
	closeReason string

	limiter *rate.Limiter
}

func newClient(playerId string, session NetworkSession, room RoomHandle) *client {
	return &client{
		playerId: playerId,
		session:  session,
		room:     room,
		outbox:   make(chan []byte, clientSendBuffer),
		quit:     make(chan struct{}),
		limiter:  rate.NewLimiter(frameRate, frameBurst),
	}
}

func (c *client) PlayerId() string {
	return c.playerId
}

// Send queues a frame for the write pump without blocking the caller.
func (c *client) Send(data []byte) error {
	select {
	case <-c.quit:
		return ErrClientGone
	case c.outbox <- data:
		return nil
	default:
		return ErrClientBufferFull
	}
}

func (c *client) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.quit)
	})
}

// ReadPump relays inbound frames into the room until the socket dies, then
// detaches. Run it on its own goroutine.
func (c *client) ReadPump() {
	defer func() {
		c.room.RequestDetach(c)
		c.Close(websocket.CloseNormalClosure, "")
	}()
	for {
		data, err := c.session.Read()
		if err != nil {
			return
		}
		if !c.limiter.Allow() {
			log.Debug().Str("player", c.playerId).Msg("dropping frame over rate limit")
			continue
		}
		frame, err := parseClientFrame(data)
		if err != nil {
			if errData, encErr := makeErrorFrame(err.Error()); encErr == nil {
				_ = c.Send(errData)
			}
			continue
		}
		c.room.Send(context.Background(), clientFrameEnvelope{frame: frame, from: c})
	}
}

// WritePump serializes all socket writes: queued frames, keepalive pings and
// the closing handshake. Run it on its own goroutine.
func (c *client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.session.Close(c.exitStatus())
	}()
	for {
		select {
		case data := <-c.outbox:
			if err := c.session.Write(data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.session.Ping(); err != nil {
				return
			}
		case <-c.quit:
			// Drain what is already queued so farewell frames still go out.
			for {
				select {
				case data := <-c.outbox:
					if err := c.session.Write(data); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (c *client) exitStatus() (int, string) {
	select {
	case <-c.quit:
		return c.closeCode, c.closeReason
	default:
		return websocket.CloseNormalClosure, ""
	}
}
