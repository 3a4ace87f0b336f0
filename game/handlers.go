package game

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"
)

// Close codes sent when a websocket attach is rejected after the upgrade.
// They are terminal: the client has to redo the HTTP registration.
const (
	closeNotRegistered    = 4003
	closeRoomNotFound     = 4004
	closeAlreadyConnected = 4009
)

const limiterIdleTTL = 10 * time.Minute

type GameHandler struct {
	lobby         Lobby
	publicBaseURL string
	upgrader      websocket.Upgrader
	createLimits  *ipRateLimiters
	joinLimits    *ipRateLimiters
}

func NewGameHandler(lobby Lobby, allowedOrigins []string, publicBaseURL string) *GameHandler {
	return &GameHandler{
		lobby:         lobby,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		createLimits: newIPRateLimiters(rate.Every(6*time.Second), 5, limiterIdleTTL),
		joinLimits:   newIPRateLimiters(rate.Every(3*time.Second), 10, limiterIdleTTL),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

type joinRoomRequest struct {
	PlayerId     string `json:"playerId" binding:"required"`
	SessionToken string `json:"sessionToken"`
}

func (h *GameHandler) CreateRoomHandler(ctx *gin.Context) {
	if ok, retryAfter := h.createLimits.reserve(ctx.ClientIP()); !ok {
		tooManyRequests(ctx, retryAfter)
		return
	}

	room, err := h.lobby.CreateRoom(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("ip", ctx.ClientIP()).Msg("failed to create room")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown error", "code": "INTERNAL"})
		return
	}

	info, err := room.RequestInfo(ctx.Request.Context())
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown error", "code": "INTERNAL"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"roomId":      info.Id,
		"status":      info.Status,
		"playerCount": info.PlayerCount,
	})
}

func (h *GameHandler) RoomInfoHandler(ctx *gin.Context) {
	roomId := strings.ToUpper(ctx.Param("roomid"))

	room, err := h.lobby.GetRoom(ctx.Request.Context(), roomId)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Room not found", "code": "ROOM_NOT_FOUND"})
		return
	}

	info, err := room.RequestInfo(ctx.Request.Context())
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Room not found", "code": "ROOM_NOT_FOUND"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"roomId":      info.Id,
		"status":      info.Status,
		"playerCount": info.PlayerCount,
		"players":     info.Players,
	})
}

// JoinRoomHandler reserves a player identity ahead of the websocket attach.
// It is idempotent for a registered-but-disconnected identity presenting the
// session token it was issued.
func (h *GameHandler) JoinRoomHandler(ctx *gin.Context) {
	if ok, retryAfter := h.joinLimits.reserve(ctx.ClientIP()); !ok {
		tooManyRequests(ctx, retryAfter)
		return
	}

	roomId := strings.ToUpper(ctx.Param("roomid"))

	var req joinRoomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "playerId is required", "code": "VALIDATION_ERROR"})
		return
	}

	room, err := h.lobby.GetRoom(ctx.Request.Context(), roomId)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Room not found", "code": "ROOM_NOT_FOUND"})
		return
	}

	result, err := room.RequestRegister(ctx.Request.Context(), req.PlayerId, req.SessionToken)
	if err != nil {
		status, payload := registerErrorResponse(req.PlayerId, err)
		ctx.AbortWithStatusJSON(status, payload)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"roomId":       roomId,
		"playerId":     strings.TrimSpace(req.PlayerId),
		"status":       result.Status,
		"sessionToken": result.Token,
	})
}

func registerErrorResponse(playerId string, err error) (int, gin.H) {
	switch {
	case errors.Is(err, ErrInvalidPlayerName):
		return http.StatusBadRequest, gin.H{"error": "Player name must be 1-20 characters", "code": "VALIDATION_ERROR"}
	case errors.Is(err, ErrNameTaken):
		return http.StatusConflict, gin.H{"error": "Name '" + playerId + "' is already taken", "code": "NAME_TAKEN"}
	case errors.Is(err, ErrGameStarted):
		return http.StatusConflict, gin.H{"error": "Game has already started", "code": "GAME_STARTED"}
	case errors.Is(err, ErrInvalidSession):
		return http.StatusForbidden, gin.H{"error": "Session token is missing or invalid", "code": "INVALID_SESSION"}
	case errors.Is(err, ErrRoomClosed):
		return http.StatusNotFound, gin.H{"error": "Room not found", "code": "ROOM_NOT_FOUND"}
	}
	return http.StatusInternalServerError, gin.H{"error": "unknown error", "code": "INTERNAL"}
}

// AttachHandler upgrades the connection and binds it to a registered
// identity. Rejections happen after the upgrade so the client receives a
// close code instead of a bare HTTP error.
func (h *GameHandler) AttachHandler(ctx *gin.Context) {
	roomId := strings.ToUpper(ctx.Query("roomId"))
	playerId := strings.TrimSpace(ctx.Query("playerId"))

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}
	session := NewWebsocketConnection(conn)

	room, err := h.lobby.GetRoom(ctx.Request.Context(), roomId)
	if err != nil {
		session.Close(closeRoomNotFound, "room-not-found")
		return
	}

	c := newClient(playerId, session, room)
	if err := room.RequestAttach(ctx.Request.Context(), c); err != nil {
		switch {
		case errors.Is(err, ErrNotRegistered):
			session.Close(closeNotRegistered, "not-registered")
		case errors.Is(err, ErrAlreadyConnected):
			session.Close(closeAlreadyConnected, "already-connected")
		default:
			session.Close(closeRoomNotFound, "room-not-found")
		}
		return
	}

	go c.WritePump()
	go c.ReadPump()
}

// RoomQRHandler renders the join link for a room as a PNG so the code can be
// scanned off the host's screen.
func (h *GameHandler) RoomQRHandler(ctx *gin.Context) {
	roomId := strings.ToUpper(ctx.Param("roomid"))

	room, err := h.lobby.GetRoom(ctx.Request.Context(), roomId)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Room not found", "code": "ROOM_NOT_FOUND"})
		return
	}

	joinURL := h.publicBaseURL + "/join/" + room.Id()
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 320)
	if err != nil {
		log.Error().Err(err).Str("room", roomId).Msg("failed to encode qr code")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown error", "code": "INTERNAL"})
		return
	}

	ctx.Data(http.StatusOK, "image/png", png)
}

func tooManyRequests(ctx *gin.Context, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds()) + 1
	ctx.Header("Retry-After", strconv.Itoa(seconds))
	ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests", "code": "RATE_LIMITED"})
}
