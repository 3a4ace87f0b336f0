package game

import (
	"context"
	"crypto/subtle"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const maxPlayerNameLength = 20

// roomEvent is anything the room actor consumes from its inbox: client
// frames, lifecycle requests and timer firings all share one queue so they
// are applied in strict arrival order.
type roomEvent interface {
	isRoomEvent()
}

type timerFired struct {
	kind timerKind
	gen  uint64
}

type registerRequest struct {
	playerId string
	token    string
	respChan chan registerResponse
}

type registerResponse struct {
	result RegisterResult
	err    error
}

type infoRequest struct {
	respChan chan RoomInfo
}

type attachRequest struct {
	client   Client
	respChan chan error
}

type detachRequest struct {
	client Client
}

type closeRequest struct{}

func (clientFrameEnvelope) isRoomEvent() {}
func (timerFired) isRoomEvent()          {}
func (registerRequest) isRoomEvent()     {}
func (infoRequest) isRoomEvent()         {}
func (attachRequest) isRoomEvent()       {}
func (detachRequest) isRoomEvent()       {}
func (closeRequest) isRoomEvent()        {}

type RegisterResult struct {
	Token  string
	Status string
}

type RoomInfo struct {
	Id          string
	Status      string
	PlayerCount int
	Players     []string
}

// Run owns all room state. Start it exactly once, on its own goroutine; it
// returns after the room has destroyed itself.
func (r *Room) Run() {
	log.Info().Str("room", r.id).Msg("room started")
	for {
		ev := <-r.inbox
		r.dispatch(ev)
		r.flushSendTasks()
		if r.closed {
			r.teardown()
			return
		}
	}
}

func (r *Room) dispatch(ev roomEvent) {
	switch e := ev.(type) {
	case clientFrameEnvelope:
		r.handleFrame(e)
	case registerRequest:
		e.respChan <- r.handleRegister(e)
	case infoRequest:
		e.respChan <- r.handleInfo()
	case attachRequest:
		e.respChan <- r.handleAttach(e.client)
	case detachRequest:
		r.handleDetach(e.client)
	case timerFired:
		r.handleTimerFired(e)
	case closeRequest:
		r.destroyRoom()
	}
}

// flushSendTasks delivers everything queued by the last dispatch. A client
// whose outbound buffer is full gets disconnected; its read pump follows up
// with the detach.
func (r *Room) flushSendTasks() {
	for _, task := range r.sendTasks {
		if err := task.to.Send(task.data); err != nil {
			log.Warn().Str("room", r.id).Str("player", task.to.PlayerId()).Err(err).Msg("dropping undeliverable frame, closing client")
			task.to.Close(websocket.ClosePolicyViolation, "client-too-slow")
		}
	}
	r.sendTasks = r.sendTasks[:0]
}

func (r *Room) teardown() {
	for _, c := range r.conns {
		c.Close(websocket.CloseNormalClosure, "room-closed")
	}
	clear(r.conns)
	if r.parentLobby != nil {
		r.parentLobby.RemoveRoom(r.id)
	}
	close(r.done)
	log.Info().Str("room", r.id).Msg("room stopped")
}

func (r *Room) queueSend(to Client, data []byte) {
	r.sendTasks = append(r.sendTasks, dataSendTask{to: to, data: data})
}

func (r *Room) broadcast(data []byte) {
	for _, c := range r.conns {
		r.queueSend(c, data)
	}
}

func (r *Room) broadcastState() {
	data, err := makeRoomStateFrame(r.projectState(r.clock()))
	if err != nil {
		log.Error().Err(err).Str("room", r.id).Msg("failed to encode room state")
		return
	}
	r.broadcast(data)
}

// Send forwards a parsed client frame into the room. Dropping the frame when
// the room is gone is fine: the client is about to learn that anyway.
func (r *Room) Send(ctx context.Context, env clientFrameEnvelope) {
	select {
	case r.inbox <- env:
	case <-r.done:
	case <-ctx.Done():
	}
}

func (r *Room) enqueueTimerFired(f timerFired) {
	select {
	case r.inbox <- f:
	case <-r.done:
	}
}

func (r *Room) RequestRegister(ctx context.Context, playerId, token string) (RegisterResult, error) {
	respChan := make(chan registerResponse, 1)
	select {
	case r.inbox <- registerRequest{playerId: playerId, token: token, respChan: respChan}:
	case <-r.done:
		return RegisterResult{}, ErrRoomClosed
	case <-ctx.Done():
		return RegisterResult{}, ctx.Err()
	}
	select {
	case resp := <-respChan:
		return resp.result, resp.err
	case <-r.done:
		// The reply may have been queued right before the room shut down.
		select {
		case resp := <-respChan:
			return resp.result, resp.err
		default:
			return RegisterResult{}, ErrRoomClosed
		}
	case <-ctx.Done():
		return RegisterResult{}, ctx.Err()
	}
}

func (r *Room) RequestInfo(ctx context.Context) (RoomInfo, error) {
	respChan := make(chan RoomInfo, 1)
	select {
	case r.inbox <- infoRequest{respChan: respChan}:
	case <-r.done:
		return RoomInfo{}, ErrRoomClosed
	case <-ctx.Done():
		return RoomInfo{}, ctx.Err()
	}
	select {
	case info := <-respChan:
		return info, nil
	case <-r.done:
		select {
		case info := <-respChan:
			return info, nil
		default:
			return RoomInfo{}, ErrRoomClosed
		}
	case <-ctx.Done():
		return RoomInfo{}, ctx.Err()
	}
}

func (r *Room) RequestAttach(ctx context.Context, c Client) error {
	respChan := make(chan error, 1)
	select {
	case r.inbox <- attachRequest{client: c, respChan: respChan}:
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-respChan:
		return err
	case <-r.done:
		select {
		case err := <-respChan:
			return err
		default:
			return ErrRoomClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Room) RequestDetach(c Client) {
	select {
	case r.inbox <- detachRequest{client: c}:
	case <-r.done:
	}
}

func (r *Room) RequestClose(ctx context.Context) {
	select {
	case r.inbox <- closeRequest{}:
	case <-r.done:
	case <-ctx.Done():
	}
}

// handleRegister reserves an identity and mints its session token, or proves
// an existing identity for a reconnect. The token is minted exactly once per
// identity; a reconnect gets the original back.
func (r *Room) handleRegister(req registerRequest) registerResponse {
	playerId := strings.TrimSpace(req.playerId)
	if n := utf8.RuneCountInString(playerId); n < 1 || n > maxPlayerNameLength {
		return registerResponse{err: ErrInvalidPlayerName}
	}
	if stored, registered := r.sessions[playerId]; registered {
		if _, connected := r.conns[playerId]; connected {
			return registerResponse{err: ErrNameTaken}
		}
		room, player, err := r.tokens.Verify(req.token)
		if err != nil || room != r.id || player != playerId {
			return registerResponse{err: ErrInvalidSession}
		}
		if subtle.ConstantTimeCompare([]byte(req.token), []byte(stored)) != 1 {
			return registerResponse{err: ErrInvalidSession}
		}
		log.Info().Str("room", r.id).Str("player", playerId).Msg("player re-registered")
		return registerResponse{result: RegisterResult{Token: stored, Status: r.status.String()}}
	}
	if r.status != STATUS_WAITING {
		return registerResponse{err: ErrGameStarted}
	}
	token, err := r.tokens.Generate(r.id, playerId, r.clock())
	if err != nil {
		log.Error().Err(err).Str("room", r.id).Str("player", playerId).Msg("failed to mint session token")
		return registerResponse{err: err}
	}
	r.sessions[playerId] = token
	r.joinOrder = append(r.joinOrder, playerId)
	r.scores[playerId] = 0
	if r.hostId == "" {
		r.hostId = playerId
	}
	log.Info().Str("room", r.id).Str("player", playerId).Msg("player registered")
	return registerResponse{result: RegisterResult{Token: token, Status: r.status.String()}}
}

func (r *Room) handleInfo() RoomInfo {
	players := make([]string, len(r.joinOrder))
	copy(players, r.joinOrder)
	return RoomInfo{
		Id:          r.id,
		Status:      r.status.String(),
		PlayerCount: len(r.joinOrder),
		Players:     players,
	}
}

func (r *Room) handleAttach(c Client) error {
	playerId := c.PlayerId()
	if !r.isRegistered(playerId) {
		return ErrNotRegistered
	}
	if _, connected := r.conns[playerId]; connected {
		return ErrAlreadyConnected
	}
	r.conns[playerId] = c
	log.Info().Str("room", r.id).Str("player", playerId).Msg("player connected")
	r.broadcastState()
	return nil
}

func (r *Room) handleDetach(c Client) {
	playerId := c.PlayerId()
	if current, ok := r.conns[playerId]; !ok || current != c {
		return
	}
	delete(r.conns, playerId)
	log.Info().Str("room", r.id).Str("player", playerId).Msg("player disconnected")
	if r.connectedCount() == 0 {
		// FINISHED rooms linger for the cleanup timer so reconnects can
		// still see the final standings.
		if r.status == STATUS_FINISHED {
			return
		}
		log.Info().Str("room", r.id).Msg("last connection gone, destroying room")
		r.destroyRoom()
		return
	}
	r.broadcastState()
}

func (r *Room) handleFrame(env clientFrameEnvelope) {
	from := env.from
	if current, ok := r.conns[from.PlayerId()]; !ok || current != from {
		log.Debug().Str("room", r.id).Str("player", from.PlayerId()).Msg("dropping frame from detached client")
		return
	}
	switch f := env.frame.(type) {
	case startGameFrame:
		r.handleStartGame(from.PlayerId())
	case answerFrame:
		r.handleAnswer(from.PlayerId(), f.Answer)
	case updateConfigFrame:
		r.handleUpdateConfig(from.PlayerId(), f)
	case reactionFrame:
		r.handleReaction(from.PlayerId(), f.ReactionId)
	case playAgainFrame:
		r.handlePlayAgain(from.PlayerId())
	}
}

func (r *Room) handleTimerFired(f timerFired) {
	if !r.timers.consume(f) {
		log.Debug().Str("room", r.id).Str("timer", f.kind.String()).Msg("dropping stale timer")
		return
	}
	switch f.kind {
	case timerQuestion:
		r.onQuestionTimeout()
	case timerResults:
		r.onResultsTimeout()
	case timerCleanup:
		r.onCleanupTimeout()
	}
}
