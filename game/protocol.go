package game

import (
	"encoding/json"
	"errors"
	"unicode/utf8"
)

const (
	MSG_START_GAME    = "START_GAME"
	MSG_ANSWER        = "ANSWER"
	MSG_UPDATE_CONFIG = "UPDATE_CONFIG"
	MSG_REACTION      = "REACTION"
	MSG_PLAY_AGAIN    = "PLAY_AGAIN"

	MSG_ROOM_STATE  = "ROOM_STATE"
	MSG_ERROR       = "ERROR"
	MSG_ROOM_CLOSED = "ROOM_CLOSED"
)

const maxAnswerLength = 200

var (
	errMalformedFrame    = errors.New("invalid-message-format")
	errUnknownFrameType  = errors.New("unknown-message-type")
	errAnswerMissing     = errors.New("answer-required")
	errAnswerTooLong     = errors.New("answer-too-long")
	errConfigMissing     = errors.New("config-required")
	errInvalidDifficulty = errors.New("invalid-difficulty")
	errReactionMissing   = errors.New("reaction-id-required")
)

type clientFrame interface {
	isClientFrame()
}

type startGameFrame struct{}

type answerFrame struct {
	Answer string
}

type updateConfigFrame struct {
	Difficulty            *string
	MultipleChoiceEnabled *bool
}

type reactionFrame struct {
	ReactionId int
}

type playAgainFrame struct{}

func (startGameFrame) isClientFrame()    {}
func (answerFrame) isClientFrame()       {}
func (updateConfigFrame) isClientFrame() {}
func (reactionFrame) isClientFrame()     {}
func (playAgainFrame) isClientFrame()    {}

// clientFrameEnvelope pairs a parsed frame with the client it came from, so
// the room can authorize the sender without trusting the payload.
type clientFrameEnvelope struct {
	frame clientFrame
	from  Client
}

type rawClientFrame struct {
	Type       string          `json:"type"`
	Answer     *string         `json:"answer"`
	Config     *rawConfigPatch `json:"config"`
	ReactionId *int            `json:"reactionId"`
}

type rawConfigPatch struct {
	Difficulty            *string `json:"difficulty"`
	MultipleChoiceEnabled *bool   `json:"multipleChoiceEnabled"`
}

func parseClientFrame(data []byte) (clientFrame, error) {
	var raw rawClientFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errMalformedFrame
	}
	switch raw.Type {
	case MSG_START_GAME:
		return startGameFrame{}, nil
	case MSG_ANSWER:
		if raw.Answer == nil {
			return nil, errAnswerMissing
		}
		if utf8.RuneCountInString(*raw.Answer) > maxAnswerLength {
			return nil, errAnswerTooLong
		}
		return answerFrame{Answer: *raw.Answer}, nil
	case MSG_UPDATE_CONFIG:
		if raw.Config == nil {
			return nil, errConfigMissing
		}
		if raw.Config.Difficulty != nil {
			if _, ok := difficultyRanges[*raw.Config.Difficulty]; !ok {
				return nil, errInvalidDifficulty
			}
		}
		return updateConfigFrame{
			Difficulty:            raw.Config.Difficulty,
			MultipleChoiceEnabled: raw.Config.MultipleChoiceEnabled,
		}, nil
	case MSG_REACTION:
		if raw.ReactionId == nil {
			return nil, errReactionMissing
		}
		return reactionFrame{ReactionId: *raw.ReactionId}, nil
	case MSG_PLAY_AGAIN:
		return playAgainFrame{}, nil
	}
	return nil, errUnknownFrameType
}

type roomStateFrame struct {
	Type      string        `json:"type"`
	RoomState roomStateView `json:"roomState"`
}

type reactionBroadcastFrame struct {
	Type       string `json:"type"`
	PlayerId   string `json:"playerId"`
	ReactionId int    `json:"reactionId"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type roomClosedFrame struct {
	Type string `json:"type"`
}

func makeRoomStateFrame(state roomStateView) ([]byte, error) {
	return json.Marshal(roomStateFrame{Type: MSG_ROOM_STATE, RoomState: state})
}

func makeReactionFrame(playerId string, reactionId int) ([]byte, error) {
	return json.Marshal(reactionBroadcastFrame{Type: MSG_REACTION, PlayerId: playerId, ReactionId: reactionId})
}

func makeErrorFrame(message string) ([]byte, error) {
	return json.Marshal(errorFrame{Type: MSG_ERROR, Message: message})
}

func makeRoomClosedFrame() ([]byte, error) {
	return json.Marshal(roomClosedFrame{Type: MSG_ROOM_CLOSED})
}
