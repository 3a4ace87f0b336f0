package game

import (
	"maps"
	"time"

	"github.com/rs/zerolog/log"
)

type questionView struct {
	Text     string   `json:"text"`
	Category string   `json:"category"`
	Options  []string `json:"options,omitempty"`
}

type resultsView struct {
	CorrectAnswer string            `json:"correctAnswer"`
	PlayerAnswers map[string]string `json:"playerAnswers"`
	PlayerResults map[string]int    `json:"playerResults"`
}

type roomStateView struct {
	RoomId          string         `json:"roomId"`
	Players         map[string]int `json:"players"`
	Status          string         `json:"status"`
	QuestionIndex   int            `json:"questionIndex"`
	TotalQuestions  int            `json:"totalQuestions"`
	HostId          string         `json:"hostId"`
	Config          RoomConfig     `json:"config"`
	Reactions       []Reaction     `json:"reactions"`
	CurrentQuestion *questionView  `json:"currentQuestion,omitempty"`
	TimeRemainingMs *int64         `json:"timeRemainingMs,omitempty"`
	Results         *resultsView   `json:"results,omitempty"`
	Winner          string         `json:"winner,omitempty"`
}

// projectState renders the public view of the room for broadcasting. The
// canonical answer is only ever included once the round is over, and a
// question index that fell out of range degrades to the base view instead of
// leaking or panicking.
func (r *Room) projectState(now time.Time) roomStateView {
	view := roomStateView{
		RoomId:         r.id,
		Players:        maps.Clone(r.scores),
		Status:         r.status.String(),
		QuestionIndex:  r.questionIndex,
		TotalQuestions: len(r.questionList),
		HostId:         r.hostId,
		Config:         r.config,
		Reactions:      reactionCatalog,
	}
	switch r.status {
	case STATUS_PLAYING:
		view.TimeRemainingMs = r.remainingMs(now)
		question, ok := r.currentQuestion()
		if !ok {
			log.Error().Str("room", r.id).Int("questionIndex", r.questionIndex).Msg("question index out of range during playing")
			return view
		}
		questionState := questionView{Text: question.Prompt, Category: question.Category}
		if r.config.MultipleChoiceEnabled {
			questionState.Options = r.round.shuffledOptions
		}
		view.CurrentQuestion = &questionState
	case STATUS_RESULTS:
		view.TimeRemainingMs = r.remainingMs(now)
		question, ok := r.currentQuestion()
		if !ok {
			log.Error().Str("room", r.id).Int("questionIndex", r.questionIndex).Msg("question index out of range during results")
			return view
		}
		view.Results = &resultsView{
			CorrectAnswer: question.Answer,
			PlayerAnswers: maps.Clone(r.round.answers),
			PlayerResults: maps.Clone(r.round.points),
		}
	case STATUS_FINISHED:
		view.TimeRemainingMs = r.remainingMs(now)
		view.Winner = r.winnerId
	}
	return view
}

func (r *Room) remainingMs(now time.Time) *int64 {
	ms := r.phaseDeadline.Sub(now).Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return &ms
}
