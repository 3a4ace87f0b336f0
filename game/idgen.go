package game

import "math/rand"

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 4
	roomCodeAttempts = 100
)

// RoomCodeGenerator hands out short shareable codes and tracks which are
// still in use. It is confined to the lobby goroutine, so no locking.
type RoomCodeGenerator struct {
	inUse map[string]struct{}
}

func NewRoomCodeGenerator() *RoomCodeGenerator {
	return &RoomCodeGenerator{inUse: make(map[string]struct{})}
}

// Generate returns a fresh 4-character code, falling back to a longer one
// when the short space is too crowded to find a free code quickly.
func (g *RoomCodeGenerator) Generate() string {
	for i := 0; i < roomCodeAttempts; i++ {
		code := randomCode(roomCodeLength)
		if _, taken := g.inUse[code]; !taken {
			g.inUse[code] = struct{}{}
			return code
		}
	}
	code := randomCode(roomCodeLength + 2)
	g.inUse[code] = struct{}{}
	return code
}

func (g *RoomCodeGenerator) Dispose(id string) {
	delete(g.inUse, id)
}

func randomCode(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
	}
	return string(b)
}
