package game

import (
	"time"

	"jduel/domain"
)

type RoomStatus int

const (
	STATUS_WAITING RoomStatus = iota
	STATUS_PLAYING
	STATUS_RESULTS
	STATUS_FINISHED
)

func (s RoomStatus) String() string {
	switch s {
	case STATUS_WAITING:
		return "waiting"
	case STATUS_PLAYING:
		return "playing"
	case STATUS_RESULTS:
		return "results"
	case STATUS_FINISHED:
		return "finished"
	}
	return "unknown"
}

const (
	DIFFICULTY_ENJOYER = "enjoyer"
	DIFFICULTY_BEAST   = "beast"
)

// difficultyRange maps a difficulty label to the inclusive question
// difficulty band it draws from.
type difficultyRange struct {
	min int
	max int
}

var difficultyRanges = map[string]difficultyRange{
	DIFFICULTY_ENJOYER: {min: 1, max: 2},
	DIFFICULTY_BEAST:   {min: 4, max: 5},
}

type RoomConfig struct {
	Difficulty            string `json:"difficulty"`
	MultipleChoiceEnabled bool   `json:"multipleChoiceEnabled"`
}

func defaultRoomConfig() RoomConfig {
	return RoomConfig{Difficulty: DIFFICULTY_ENJOYER, MultipleChoiceEnabled: false}
}

// Timings groups the phase durations so tests can shrink them.
type Timings struct {
	QuestionDuration time.Duration
	ResultsDuration  time.Duration
	FinishedLinger   time.Duration
	ReactionCooldown time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		QuestionDuration: 15 * time.Second,
		ResultsDuration:  10 * time.Second,
		FinishedLinger:   60 * time.Second,
		ReactionCooldown: 2 * time.Second,
	}
}

type Reaction struct {
	Id    int    `json:"id"`
	Emoji string `json:"emoji"`
}

var reactionCatalog = []Reaction{
	{Id: 1, Emoji: "👍"},
	{Id: 2, Emoji: "😂"},
	{Id: 3, Emoji: "😮"},
	{Id: 4, Emoji: "😭"},
	{Id: 5, Emoji: "🔥"},
	{Id: 6, Emoji: "🧠"},
}

func reactionById(id int) (Reaction, bool) {
	for _, re := range reactionCatalog {
		if re.Id == id {
			return re, true
		}
	}
	return Reaction{}, false
}

// roundState holds everything scoped to the question currently on screen.
// It is rebuilt from scratch at each PLAYING entry.
type roundState struct {
	answered        map[string]bool
	answers         map[string]string
	correct         []string
	points          map[string]int
	shuffledOptions []string
}

func newRoundState() *roundState {
	return &roundState{
		answered: make(map[string]bool),
		answers:  make(map[string]string),
		points:   make(map[string]int),
	}
}

type dataSendTask struct {
	to   Client
	data []byte
}

// Room is a single trivia session. All fields below the inbox are owned by
// the goroutine running Run; nothing else may touch them.
type Room struct {
	id string

	inbox chan roomEvent
	done  chan struct{}

	source           QuestionSource
	verifier         AnswerVerifier
	tokens           TokenManager
	questionsPerGame int
	timings          Timings

	parentLobby Lobby
	clock       func() time.Time

	status        RoomStatus
	config        RoomConfig
	sessions      map[string]string // playerId -> session token
	joinOrder     []string
	scores        map[string]int
	conns         map[string]Client
	hostId        string
	questionList  []domain.Question
	questionIndex int
	round         *roundState
	phaseDeadline time.Time
	lastReaction  map[string]time.Time
	winnerId      string

	timers    *timerScheduler
	sendTasks []dataSendTask
	closed    bool
}

func NewRoom(id string, source QuestionSource, verifier AnswerVerifier, tokens TokenManager, questionsPerGame int, timings Timings) *Room {
	r := &Room{
		id:               id,
		inbox:            make(chan roomEvent, 1024),
		done:             make(chan struct{}),
		source:           source,
		verifier:         verifier,
		tokens:           tokens,
		questionsPerGame: questionsPerGame,
		timings:          timings,
		clock:            time.Now,
		status:           STATUS_WAITING,
		config:           defaultRoomConfig(),
		sessions:         make(map[string]string),
		scores:           make(map[string]int),
		conns:            make(map[string]Client),
		round:            newRoundState(),
		lastReaction:     make(map[string]time.Time),
	}
	r.timers = newTimerScheduler(r)
	return r
}

func (r *Room) Id() string {
	return r.id
}

func (r *Room) SetParentLobby(l Lobby) {
	r.parentLobby = l
}

func (r *Room) connectedCount() int {
	return len(r.conns)
}

func (r *Room) isRegistered(playerId string) bool {
	_, ok := r.sessions[playerId]
	return ok
}

// currentQuestion returns the question on screen, or false when the index
// does not point inside the loaded list.
func (r *Room) currentQuestion() (domain.Question, bool) {
	if r.questionIndex < 0 || r.questionIndex >= len(r.questionList) {
		return domain.Question{}, false
	}
	return r.questionList[r.questionIndex], true
}
