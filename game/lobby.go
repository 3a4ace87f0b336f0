package game

import (
	"context"

	"github.com/rs/zerolog/log"
)

// RoomDeps bundles the collaborators every room is built with.
type RoomDeps struct {
	Source           QuestionSource
	Verifier         AnswerVerifier
	Tokens           TokenManager
	QuestionsPerGame int
	Timings          Timings
}

type createRoomRequest struct {
	respChan chan RoomHandle
}

type getRoomRequest struct {
	roomId   string
	respChan chan RoomHandle
}

type shutdownRequest struct {
	ctx      context.Context
	respChan chan struct{}
}

type lobby struct {
	rooms          map[string]*Room
	createReqs     chan createRoomRequest
	getReqs        chan getRoomRequest
	removeRoomChan chan string
	shutdownReqs   chan shutdownRequest
	idGenerator    UniqueIdGenerator
	deps           RoomDeps
}

func NewLobby(idgen UniqueIdGenerator, deps RoomDeps) *lobby {
	return &lobby{
		rooms:          map[string]*Room{},
		createReqs:     make(chan createRoomRequest, 32),
		getReqs:        make(chan getRoomRequest, 256),
		removeRoomChan: make(chan string, 32),
		shutdownReqs:   make(chan shutdownRequest, 1),
		idGenerator:    idgen,
		deps:           deps,
	}
}

func (l *lobby) CreateRoom(ctx context.Context) (RoomHandle, error) {
	respChan := make(chan RoomHandle, 1)
	select {
	case l.createReqs <- createRoomRequest{respChan: respChan}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case room := <-respChan:
		return room, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *lobby) GetRoom(ctx context.Context, roomId string) (RoomHandle, error) {
	respChan := make(chan RoomHandle, 1)
	select {
	case l.getReqs <- getRoomRequest{roomId: roomId, respChan: respChan}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case room := <-respChan:
		if room == nil {
			return nil, ErrRoomNotFound
		}
		return room, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *lobby) RemoveRoom(roomId string) {
	l.removeRoomChan <- roomId
}

// Shutdown asks every live room to close. It returns once the close requests
// are dispatched; the rooms finish tearing down on their own goroutines.
func (l *lobby) Shutdown(ctx context.Context) {
	respChan := make(chan struct{}, 1)
	select {
	case l.shutdownReqs <- shutdownRequest{ctx: ctx, respChan: respChan}:
	case <-ctx.Done():
		return
	}
	select {
	case <-respChan:
	case <-ctx.Done():
	}
}

func (l *lobby) LobbyActor(started chan struct{}) {
	close(started)

	for {
		select {
		case req := <-l.createReqs:
			l.handleCreateRoom(req)
		case req := <-l.getReqs:
			l.handleGetRoom(req)
		case roomId := <-l.removeRoomChan:
			l.handleRemoveRoom(roomId)
		case req := <-l.shutdownReqs:
			l.handleShutdown(req)
		}
	}
}

func (l *lobby) handleCreateRoom(req createRoomRequest) {
	id := l.idGenerator.Generate()
	room := NewRoom(id, l.deps.Source, l.deps.Verifier, l.deps.Tokens, l.deps.QuestionsPerGame, l.deps.Timings)
	room.SetParentLobby(l)
	l.rooms[id] = room
	go room.Run()
	log.Info().Str("room", id).Int("rooms", len(l.rooms)).Msg("room created")
	req.respChan <- room
}

func (l *lobby) handleGetRoom(req getRoomRequest) {
	room, ok := l.rooms[req.roomId]
	if !ok {
		req.respChan <- nil
		return
	}
	req.respChan <- room
}

func (l *lobby) handleRemoveRoom(roomId string) {
	if _, ok := l.rooms[roomId]; !ok {
		return
	}
	delete(l.rooms, roomId)
	l.idGenerator.Dispose(roomId)
	log.Info().Str("room", roomId).Int("rooms", len(l.rooms)).Msg("room removed")
}

func (l *lobby) handleShutdown(req shutdownRequest) {
	log.Info().Int("rooms", len(l.rooms)).Msg("closing all rooms")
	for _, room := range l.rooms {
		room.RequestClose(req.ctx)
	}
	req.respChan <- struct{}{}
}
