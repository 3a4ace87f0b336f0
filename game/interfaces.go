package game

import (
	"context"
	"time"

	"jduel/domain"
)

// NetworkSession is the transport a client talks through. The gorilla
// implementation lives in websocket.go; tests substitute mocks.
type NetworkSession interface {
	Close(code int, reason string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

// Client is a registered identity's live channel as the room sees it.
// Send must not block: it hands the frame to the client's write pump and
// reports an error when the buffer is full or the client is gone.
type Client interface {
	PlayerId() string
	Send(data []byte) error
	Close(code int, reason string)
}

// RoomHandle is the request surface of a room actor. Every call is forwarded
// into the room's inbox and handled on the room's own goroutine.
type RoomHandle interface {
	Id() string
	Send(ctx context.Context, env clientFrameEnvelope)
	RequestRegister(ctx context.Context, playerId, token string) (RegisterResult, error)
	RequestInfo(ctx context.Context) (RoomInfo, error)
	RequestAttach(ctx context.Context, c Client) error
	RequestDetach(c Client)
	RequestClose(ctx context.Context)
}

type Lobby interface {
	CreateRoom(ctx context.Context) (RoomHandle, error)
	GetRoom(ctx context.Context, roomId string) (RoomHandle, error)
	RemoveRoom(roomId string)
}

type UniqueIdGenerator interface {
	Generate() string
	Dispose(id string)
}

type QuestionSource interface {
	RandomQuestions(ctx context.Context, minDifficulty, maxDifficulty, count int) ([]domain.Question, error)
}

type AnswerVerifier interface {
	Verify(candidate, canonical string) bool
}

type TokenManager interface {
	Generate(room, player string, now time.Time) (string, error)
	Verify(token string) (room string, player string, err error)
}
