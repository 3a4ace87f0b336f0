package game

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"jduel/domain"
)

// --- NetworkSession ---

type MockNetworkSession struct {
	mock.Mock
}

func (m *MockNetworkSession) Close(code int, reason string) {
	m.Called(code, reason)
}

func (m *MockNetworkSession) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockNetworkSession) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockNetworkSession) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- Client ---

type MockClient struct {
	mock.Mock
}

func (m *MockClient) PlayerId() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) Send(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockClient) Close(code int, reason string) {
	m.Called(code, reason)
}

// --- QuestionSource ---

type MockQuestionSource struct {
	mock.Mock
}

func (m *MockQuestionSource) RandomQuestions(ctx context.Context, minDifficulty, maxDifficulty, count int) ([]domain.Question, error) {
	args := m.Called(ctx, minDifficulty, maxDifficulty, count)
	return args.Get(0).([]domain.Question), args.Error(1)
}

// --- TokenManager ---

type MockTokenManager struct {
	mock.Mock
}

func (m *MockTokenManager) Generate(room, player string, now time.Time) (string, error) {
	args := m.Called(room, player, now)
	return args.String(0), args.Error(1)
}

func (m *MockTokenManager) Verify(token string) (string, string, error) {
	args := m.Called(token)
	return args.String(0), args.String(1), args.Error(2)
}

// --- UniqueIdGenerator ---

type MockUniqueIdGenerator struct {
	mock.Mock
}

func (m *MockUniqueIdGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockUniqueIdGenerator) Dispose(id string) {
	m.Called(id)
}

// --- Lobby ---

type MockLobby struct {
	mock.Mock
}

func (m *MockLobby) CreateRoom(ctx context.Context) (RoomHandle, error) {
	args := m.Called(ctx)
	room, _ := args.Get(0).(RoomHandle)
	return room, args.Error(1)
}

func (m *MockLobby) GetRoom(ctx context.Context, roomId string) (RoomHandle, error) {
	args := m.Called(ctx, roomId)
	room, _ := args.Get(0).(RoomHandle)
	return room, args.Error(1)
}

func (m *MockLobby) RemoveRoom(roomId string) {
	m.Called(roomId)
}

// --- RoomHandle ---

type MockRoomHandle struct {
	mock.Mock
}

func (m *MockRoomHandle) Id() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRoomHandle) Send(ctx context.Context, env clientFrameEnvelope) {
	m.Called(ctx, env)
}

func (m *MockRoomHandle) RequestRegister(ctx context.Context, playerId, token string) (RegisterResult, error) {
	args := m.Called(ctx, playerId, token)
	return args.Get(0).(RegisterResult), args.Error(1)
}

func (m *MockRoomHandle) RequestInfo(ctx context.Context) (RoomInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).(RoomInfo), args.Error(1)
}

func (m *MockRoomHandle) RequestAttach(ctx context.Context, c Client) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockRoomHandle) RequestDetach(c Client) {
	m.Called(c)
}

func (m *MockRoomHandle) RequestClose(ctx context.Context) {
	m.Called(ctx)
}
