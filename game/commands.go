package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"jduel/domain"
)

const questionLoadTimeout = 5 * time.Second

func (r *Room) handleStartGame(playerId string) {
	if playerId != r.hostId {
		log.Warn().Str("room", r.id).Str("player", playerId).Msg("start rejected, not host")
		return
	}
	if r.status != STATUS_WAITING {
		log.Warn().Str("room", r.id).Str("status", r.status.String()).Msg("start rejected, game in progress")
		return
	}
	if err := r.loadQuestions(); err != nil {
		log.Error().Err(err).Str("room", r.id).Str("difficulty", r.config.Difficulty).Msg("failed to load questions")
		return
	}
	for id := range r.scores {
		r.scores[id] = 0
	}
	r.questionIndex = 0
	r.winnerId = ""
	log.Info().Str("room", r.id).Int("questions", len(r.questionList)).Msg("game started")
	r.enterPlaying()
}

func (r *Room) loadQuestions() error {
	band, ok := difficultyRanges[r.config.Difficulty]
	if !ok {
		band = difficultyRanges[DIFFICULTY_ENJOYER]
	}
	ctx, cancel := context.WithTimeout(context.Background(), questionLoadTimeout)
	defer cancel()
	questions, err := r.source.RandomQuestions(ctx, band.min, band.max, r.questionsPerGame)
	if err != nil {
		return err
	}
	r.questionList = questions
	return nil
}

// handleAnswer records the first submission per player for the current
// question. Correct answers score by arrival rank and count toward the total
// immediately. The round ends early once every connected player has answered.
func (r *Room) handleAnswer(playerId, answer string) {
	if r.status != STATUS_PLAYING {
		log.Debug().Str("room", r.id).Str("player", playerId).Msg("dropping answer outside playing")
		return
	}
	if r.round.answered[playerId] {
		log.Debug().Str("room", r.id).Str("player", playerId).Msg("dropping duplicate answer")
		return
	}
	r.round.answered[playerId] = true
	r.round.answers[playerId] = answer
	question, ok := r.currentQuestion()
	if !ok {
		log.Error().Str("room", r.id).Int("questionIndex", r.questionIndex).Msg("question index out of range, answer recorded unscored")
	} else if r.verifier.Verify(answer, question.Answer) {
		points := pointsForRank(len(r.round.correct) + 1)
		r.round.correct = append(r.round.correct, playerId)
		r.round.points[playerId] = points
		r.scores[playerId] += points
	} else {
		r.round.points[playerId] = 0
	}
	if r.allConnectedAnswered() {
		log.Info().Str("room", r.id).Msg("all players answered, advancing to results")
		r.enterResults()
	}
}

func (r *Room) allConnectedAnswered() bool {
	for playerId := range r.conns {
		if !r.round.answered[playerId] {
			return false
		}
	}
	return true
}

func (r *Room) handleUpdateConfig(playerId string, patch updateConfigFrame) {
	if playerId != r.hostId {
		log.Warn().Str("room", r.id).Str("player", playerId).Msg("config update rejected, not host")
		return
	}
	if r.status != STATUS_WAITING {
		log.Warn().Str("room", r.id).Str("status", r.status.String()).Msg("config update rejected, game in progress")
		return
	}
	if patch.Difficulty != nil {
		r.config.Difficulty = *patch.Difficulty
	}
	if patch.MultipleChoiceEnabled != nil {
		r.config.MultipleChoiceEnabled = *patch.MultipleChoiceEnabled
	}
	log.Info().Str("room", r.id).Str("difficulty", r.config.Difficulty).Bool("multipleChoice", r.config.MultipleChoiceEnabled).Msg("config updated")
	r.broadcastState()
}

func (r *Room) handleReaction(playerId string, reactionId int) {
	if r.status != STATUS_PLAYING && r.status != STATUS_RESULTS {
		log.Debug().Str("room", r.id).Str("player", playerId).Msg("dropping reaction outside round")
		return
	}
	if _, ok := reactionById(reactionId); !ok {
		log.Debug().Str("room", r.id).Str("player", playerId).Int("reactionId", reactionId).Msg("dropping unknown reaction")
		return
	}
	now := r.clock()
	if last, ok := r.lastReaction[playerId]; ok && now.Sub(last) < r.timings.ReactionCooldown {
		log.Debug().Str("room", r.id).Str("player", playerId).Msg("dropping reaction inside cooldown")
		return
	}
	r.lastReaction[playerId] = now
	data, err := makeReactionFrame(playerId, reactionId)
	if err != nil {
		log.Error().Err(err).Str("room", r.id).Msg("failed to encode reaction")
		return
	}
	r.broadcast(data)
}

func (r *Room) handlePlayAgain(playerId string) {
	if playerId != r.hostId {
		log.Warn().Str("room", r.id).Str("player", playerId).Msg("play again rejected, not host")
		return
	}
	if r.status != STATUS_FINISHED {
		log.Warn().Str("room", r.id).Str("status", r.status.String()).Msg("play again rejected, game not finished")
		return
	}
	log.Info().Str("room", r.id).Msg("resetting room for another game")
	r.resetToWaiting()
}

func (r *Room) enterPlaying() {
	r.timers.cancel(timerResults)
	r.status = STATUS_PLAYING
	r.round = newRoundState()
	if question, ok := r.currentQuestion(); ok {
		r.round.shuffledOptions = shuffledAnswerOptions(question)
	} else {
		log.Error().Str("room", r.id).Int("questionIndex", r.questionIndex).Msg("question index out of range entering playing")
	}
	r.phaseDeadline = r.clock().Add(r.timings.QuestionDuration)
	r.broadcastState()
	r.timers.schedule(timerQuestion, r.timings.QuestionDuration)
}

func (r *Room) enterResults() {
	r.timers.cancel(timerQuestion)
	r.status = STATUS_RESULTS
	// Connected players who never answered show up with zero points.
	for playerId := range r.conns {
		if _, ok := r.round.points[playerId]; !ok {
			r.round.points[playerId] = 0
		}
	}
	r.phaseDeadline = r.clock().Add(r.timings.ResultsDuration)
	r.broadcastState()
	r.timers.schedule(timerResults, r.timings.ResultsDuration)
}

func (r *Room) enterFinished() {
	r.timers.cancel(timerResults)
	r.status = STATUS_FINISHED
	r.winnerId = winnerByScore(r.scores, r.joinOrder)
	r.phaseDeadline = r.clock().Add(r.timings.FinishedLinger)
	r.broadcastState()
	r.timers.schedule(timerCleanup, r.timings.FinishedLinger)
}

// resetToWaiting rearms the room for another game with the same shareable
// code. Identities with no live connection are dropped so stale names free
// up for new players.
func (r *Room) resetToWaiting() {
	r.timers.cancelAll()
	r.status = STATUS_WAITING
	r.questionIndex = 0
	r.questionList = nil
	r.round = newRoundState()
	r.phaseDeadline = time.Time{}
	r.winnerId = ""
	r.lastReaction = make(map[string]time.Time)
	r.pruneDisconnected()
	for playerId := range r.scores {
		r.scores[playerId] = 0
	}
	r.broadcastState()
}

func (r *Room) pruneDisconnected() {
	kept := r.joinOrder[:0]
	for _, playerId := range r.joinOrder {
		if _, connected := r.conns[playerId]; connected {
			kept = append(kept, playerId)
			continue
		}
		delete(r.sessions, playerId)
		delete(r.scores, playerId)
		log.Info().Str("room", r.id).Str("player", playerId).Msg("pruned disconnected player")
	}
	r.joinOrder = kept
}

func (r *Room) onQuestionTimeout() {
	if r.status != STATUS_PLAYING {
		log.Error().Str("room", r.id).Str("status", r.status.String()).Msg("question timer fired outside playing")
		return
	}
	r.enterResults()
}

func (r *Room) onResultsTimeout() {
	if r.status != STATUS_RESULTS {
		log.Error().Str("room", r.id).Str("status", r.status.String()).Msg("results timer fired outside results")
		return
	}
	if r.questionIndex+1 < len(r.questionList) {
		r.questionIndex++
		r.enterPlaying()
		return
	}
	r.enterFinished()
}

func (r *Room) onCleanupTimeout() {
	if r.status != STATUS_FINISHED {
		log.Error().Str("room", r.id).Str("status", r.status.String()).Msg("cleanup timer fired outside finished")
		return
	}
	log.Info().Str("room", r.id).Msg("cleanup timer expired, destroying room")
	r.destroyRoom()
}

// destroyRoom queues the farewell frame and marks the room closed. The run
// loop performs the actual teardown after the flush so the frame still
// reaches client buffers.
func (r *Room) destroyRoom() {
	if r.closed {
		return
	}
	r.timers.cancelAll()
	if data, err := makeRoomClosedFrame(); err == nil {
		r.broadcast(data)
	}
	r.closed = true
}

func shuffledAnswerOptions(q domain.Question) []string {
	options := make([]string, 0, len(q.WrongAnswers)+1)
	options = append(options, q.Answer)
	options = append(options, q.WrongAnswers...)
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}
