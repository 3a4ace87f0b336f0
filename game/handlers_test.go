package game

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateRoomHandler(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	mockLobby := &MockLobby{}
	mockRoom := &MockRoomHandle{}
	mockLobby.On("CreateRoom", mock.Anything).Return(mockRoom, nil)
	mockRoom.On("RequestInfo", mock.Anything).Return(RoomInfo{Id: "AB3D", Status: "waiting", PlayerCount: 0}, nil)

	handler := NewGameHandler(mockLobby, nil, "https://jduel.example")

	router := gin.New()
	router.POST("/api/rooms", handler.CreateRoomHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"roomId":"AB3D"`)
	assert.Contains(t, res.Body.String(), `"status":"waiting"`)
	mockLobby.AssertExpectations(t)
	mockRoom.AssertExpectations(t)
}

func TestCreateRoomHandler_RateLimited(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	mockLobby := &MockLobby{}
	mockRoom := &MockRoomHandle{}
	mockLobby.On("CreateRoom", mock.Anything).Return(mockRoom, nil)
	mockRoom.On("RequestInfo", mock.Anything).Return(RoomInfo{Id: "AB3D", Status: "waiting"}, nil)

	handler := NewGameHandler(mockLobby, nil, "https://jduel.example")

	router := gin.New()
	router.POST("/api/rooms", handler.CreateRoomHandler)

	// The create limiter allows a burst of 5 per address.
	for i := 0; i < 5; i++ {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/rooms", nil))
		require.Equal(t, http.StatusOK, res.Code, "request %d should pass", i+1)
	}

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/rooms", nil))

	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.Contains(t, res.Body.String(), "RATE_LIMITED")
	assert.NotEmpty(t, res.Header().Get("Retry-After"))
}

func TestRoomInfoHandler(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name         string
		setupMocks   func(*MockLobby, *MockRoomHandle)
		roomId       string
		expectedCode int
		expectedBody string
	}{
		{
			name: "lowercase code resolves the room",
			setupMocks: func(l *MockLobby, r *MockRoomHandle) {
				l.On("GetRoom", mock.Anything, "AB3D").Return(r, nil)
				r.On("RequestInfo", mock.Anything).Return(RoomInfo{Id: "AB3D", Status: "waiting", PlayerCount: 2, Players: []string{"ana", "bo"}}, nil)
			},
			roomId:       "ab3d",
			expectedCode: http.StatusOK,
			expectedBody: `"players":["ana","bo"]`,
		},
		{
			name: "unknown room",
			setupMocks: func(l *MockLobby, r *MockRoomHandle) {
				l.On("GetRoom", mock.Anything, "ZZZZ").Return(nil, ErrRoomNotFound)
			},
			roomId:       "ZZZZ",
			expectedCode: http.StatusNotFound,
			expectedBody: "ROOM_NOT_FOUND",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mockLobby := &MockLobby{}
			mockRoom := &MockRoomHandle{}
			tc.setupMocks(mockLobby, mockRoom)

			handler := NewGameHandler(mockLobby, nil, "https://jduel.example")

			router := gin.New()
			router.GET("/api/rooms/:roomid", handler.RoomInfoHandler)

			req := httptest.NewRequest(http.MethodGet, "/api/rooms/"+tc.roomId, nil)
			res := httptest.NewRecorder()
			router.ServeHTTP(res, req)

			assert.Equal(t, tc.expectedCode, res.Code)
			assert.Contains(t, res.Body.String(), tc.expectedBody)
			mockLobby.AssertExpectations(t)
			mockRoom.AssertExpectations(t)
		})
	}
}

func TestJoinRoomHandler_Validation(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name         string
		setupMocks   func(*MockLobby, *MockRoomHandle)
		body         string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "invalid json",
			setupMocks:   func(l *MockLobby, r *MockRoomHandle) {},
			body:         `{invalid}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: "VALIDATION_ERROR",
		},
		{
			name:         "missing playerId",
			setupMocks:   func(l *MockLobby, r *MockRoomHandle) {},
			body:         `{}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: "playerId is required",
		},
		{
			name: "room not found",
			setupMocks: func(l *MockLobby, r *MockRoomHandle) {
				l.On("GetRoom", mock.Anything, "AB3D").Return(nil, ErrRoomNotFound)
			},
			body:         `{"playerId":"ana"}`,
			expectedCode: http.StatusNotFound,
			expectedBody: "ROOM_NOT_FOUND",
		},
		{
			name: "name rejected by the room",
			setupMocks: func(l *MockLobby, r *MockRoomHandle) {
				l.On("GetRoom", mock.Anything, "AB3D").Return(r, nil)
				r.On("RequestRegister", mock.Anything, "a!", "").Return(RegisterResult{}, ErrInvalidPlayerName)
			},
			body:         `{"playerId":"a!"}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: "Player name must be 1-20 characters",
		},
		{
			name: "name taken",
			setupMocks: func(l *MockLobby, r *MockRoomHandle) {
				l.On("GetRoom", mock.Anything, "AB3D").Return(r, nil)
				r.On("RequestRegister", mock.Anything, "ana", "").Return(RegisterResult{}, ErrNameTaken)
			},
			body:         `{"playerId":"ana"}`,
			expectedCode: http.StatusConflict,
			expectedBody: "Name 'ana' is already taken",
		},
		{
			name: "game already started",
			setupMocks: func(l *MockLobby, r *MockRoomHandle) {
				l.On("GetRoom", mock.Anything, "AB3D").Return(r, nil)
				r.On("RequestRegister", mock.Anything, "ana", "").Return(RegisterResult{}, ErrGameStarted)
			},
			body:         `{"playerId":"ana"}`,
			expectedCode: http.StatusConflict,
			expectedBody: "GAME_STARTED",
		},
		{
			name: "bad session token on reconnect",
			setupMocks: func(l *MockLobby, r *MockRoomHandle) {
				l.On("GetRoom", mock.Anything, "AB3D").Return(r, nil)
				r.On("RequestRegister", mock.Anything, "ana", "tok-forged").Return(RegisterResult{}, ErrInvalidSession)
			},
			body:         `{"playerId":"ana","sessionToken":"tok-forged"}`,
			expectedCode: http.StatusForbidden,
			expectedBody: "INVALID_SESSION",
		},
		{
			name: "room closed mid flight",
			setupMocks: func(l *MockLobby, r *MockRoomHandle) {
				l.On("GetRoom", mock.Anything, "AB3D").Return(r, nil)
				r.On("RequestRegister", mock.Anything, "ana", "").Return(RegisterResult{}, ErrRoomClosed)
			},
			body:         `{"playerId":"ana"}`,
			expectedCode: http.StatusNotFound,
			expectedBody: "ROOM_NOT_FOUND",
		},
		{
			name: "successful registration",
			setupMocks: func(l *MockLobby, r *MockRoomHandle) {
				l.On("GetRoom", mock.Anything, "AB3D").Return(r, nil)
				r.On("RequestRegister", mock.Anything, "  ana  ", "").Return(RegisterResult{Token: "tok-ana", Status: "waiting"}, nil)
			},
			body:         `{"playerId":"  ana  "}`,
			expectedCode: http.StatusOK,
			expectedBody: `"sessionToken":"tok-ana"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mockLobby := &MockLobby{}
			mockRoom := &MockRoomHandle{}
			tc.setupMocks(mockLobby, mockRoom)

			handler := NewGameHandler(mockLobby, nil, "https://jduel.example")

			router := gin.New()
			router.POST("/api/rooms/:roomid/join", handler.JoinRoomHandler)

			req := httptest.NewRequest(http.MethodPost, "/api/rooms/ab3d/join", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			res := httptest.NewRecorder()
			router.ServeHTTP(res, req)

			assert.Equal(t, tc.expectedCode, res.Code)
			assert.Contains(t, res.Body.String(), tc.expectedBody)
			mockLobby.AssertExpectations(t)
			mockRoom.AssertExpectations(t)
		})
	}
}

func TestJoinRoomHandler_TrimsEchoedName(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	mockLobby := &MockLobby{}
	mockRoom := &MockRoomHandle{}
	mockLobby.On("GetRoom", mock.Anything, "AB3D").Return(mockRoom, nil)
	mockRoom.On("RequestRegister", mock.Anything, " ana ", "").Return(RegisterResult{Token: "tok-ana", Status: "waiting"}, nil)

	handler := NewGameHandler(mockLobby, nil, "https://jduel.example")
	router := gin.New()
	router.POST("/api/rooms/:roomid/join", handler.JoinRoomHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/AB3D/join", bytes.NewBufferString(`{"playerId":" ana "}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"playerId":"ana"`)
}

func TestJoinRoomHandler_RateLimited(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	handler := NewGameHandler(&MockLobby{}, nil, "https://jduel.example")
	router := gin.New()
	router.POST("/api/rooms/:roomid/join", handler.JoinRoomHandler)

	// The join limiter allows a burst of 10 per address; the limit applies
	// before any validation.
	for i := 0; i < 10; i++ {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/rooms/AB3D/join", bytes.NewBufferString(`{}`)))
		require.Equal(t, http.StatusBadRequest, res.Code, "request %d should reach validation", i+1)
	}

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/rooms/AB3D/join", bytes.NewBufferString(`{}`)))

	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.Contains(t, res.Body.String(), "RATE_LIMITED")
	assert.NotEmpty(t, res.Header().Get("Retry-After"))
}

func TestRoomQRHandler(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	t.Run("renders a png with the join link", func(t *testing.T) {
		t.Parallel()
		mockLobby := &MockLobby{}
		mockRoom := &MockRoomHandle{}
		mockLobby.On("GetRoom", mock.Anything, "AB3D").Return(mockRoom, nil)
		mockRoom.On("Id").Return("AB3D")

		handler := NewGameHandler(mockLobby, nil, "https://jduel.example/")
		router := gin.New()
		router.GET("/api/rooms/:roomid/qr", handler.RoomQRHandler)

		req := httptest.NewRequest(http.MethodGet, "/api/rooms/ab3d/qr", nil)
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)

		assert.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "image/png", res.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(res.Body.Bytes(), []byte("\x89PNG")), "body must be a png image")
	})

	t.Run("unknown room", func(t *testing.T) {
		t.Parallel()
		mockLobby := &MockLobby{}
		mockLobby.On("GetRoom", mock.Anything, "ZZZZ").Return(nil, ErrRoomNotFound)

		handler := NewGameHandler(mockLobby, nil, "https://jduel.example")
		router := gin.New()
		router.GET("/api/rooms/:roomid/qr", handler.RoomQRHandler)

		req := httptest.NewRequest(http.MethodGet, "/api/rooms/ZZZZ/qr", nil)
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)

		assert.Equal(t, http.StatusNotFound, res.Code)
	})
}

func TestAttachHandler(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	newAttachServer := func(mockLobby *MockLobby) *httptest.Server {
		handler := NewGameHandler(mockLobby, nil, "https://jduel.example")
		router := gin.New()
		router.GET("/ws", handler.AttachHandler)
		return httptest.NewServer(router)
	}

	readCloseCode := func(t *testing.T, conn *websocket.Conn) int {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, _, err := conn.ReadMessage()
		closeErr, ok := err.(*websocket.CloseError)
		require.True(t, ok, "expected a close error, got %v", err)
		return closeErr.Code
	}

	t.Run("unknown room gets the room-not-found close code", func(t *testing.T) {
		t.Parallel()
		mockLobby := &MockLobby{}
		mockLobby.On("GetRoom", mock.Anything, "ZZZZ").Return(nil, ErrRoomNotFound)
		server := newAttachServer(mockLobby)
		defer server.Close()

		wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?roomId=zzzz&playerId=ana"
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		defer conn.Close()

		assert.Equal(t, closeRoomNotFound, readCloseCode(t, conn))
		mockLobby.AssertExpectations(t)
	})

	t.Run("unregistered player gets the not-registered close code", func(t *testing.T) {
		t.Parallel()
		mockLobby := &MockLobby{}
		mockRoom := &MockRoomHandle{}
		mockLobby.On("GetRoom", mock.Anything, "AB3D").Return(mockRoom, nil)
		mockRoom.On("RequestAttach", mock.Anything, mock.Anything).Return(ErrNotRegistered)
		server := newAttachServer(mockLobby)
		defer server.Close()

		wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?roomId=AB3D&playerId=ana"
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		defer conn.Close()

		assert.Equal(t, closeNotRegistered, readCloseCode(t, conn))
		mockRoom.AssertExpectations(t)
	})

	t.Run("second socket for the same player is turned away", func(t *testing.T) {
		t.Parallel()
		mockLobby := &MockLobby{}
		mockRoom := &MockRoomHandle{}
		mockLobby.On("GetRoom", mock.Anything, "AB3D").Return(mockRoom, nil)
		mockRoom.On("RequestAttach", mock.Anything, mock.Anything).Return(ErrAlreadyConnected)
		server := newAttachServer(mockLobby)
		defer server.Close()

		wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?roomId=AB3D&playerId=ana"
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		defer conn.Close()

		assert.Equal(t, closeAlreadyConnected, readCloseCode(t, conn))
	})

	t.Run("successful attach wires the pumps to the room", func(t *testing.T) {
		t.Parallel()
		mockLobby := &MockLobby{}
		mockRoom := &MockRoomHandle{}
		mockLobby.On("GetRoom", mock.Anything, "AB3D").Return(mockRoom, nil)
		mockRoom.On("RequestAttach", mock.Anything, mock.Anything).Return(nil)
		mockRoom.On("RequestDetach", mock.Anything).Maybe()
		envelopes := make(chan clientFrameEnvelope, 1)
		mockRoom.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			envelopes <- args.Get(1).(clientFrameEnvelope)
		})
		server := newAttachServer(mockLobby)
		defer server.Close()

		wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?roomId=ab3d&playerId=%20ana%20"
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"START_GAME"}`)))

		select {
		case env := <-envelopes:
			assert.Equal(t, startGameFrame{}, env.frame)
			assert.Equal(t, "ana", env.from.PlayerId())
		case <-time.After(time.Second):
			t.Fatal("frame never reached the room")
		}
		mockRoom.AssertExpectations(t)
	})
}
