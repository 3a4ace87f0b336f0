package storage

import (
	"context"
	"math/rand"

	"jduel/domain"
)

// StaticSource serves questions from a fixed in-memory set. It backs the
// server when no POSTGRES_URL is configured and the unit tests.
type StaticSource struct {
	questions []staticQuestion
}

type staticQuestion struct {
	domain.Question
	difficulty int
}

func NewStaticSource() *StaticSource {
	return &StaticSource{questions: builtinQuestions}
}

func (s *StaticSource) RandomQuestions(_ context.Context, minDifficulty, maxDifficulty, count int) ([]domain.Question, error) {
	eligible := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if q.difficulty >= minDifficulty && q.difficulty <= maxDifficulty {
			eligible = append(eligible, q.Question)
		}
	}
	if len(eligible) == 0 {
		return nil, domain.ErrNoQuestions
	}

	rand.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})
	if count < len(eligible) {
		eligible = eligible[:count]
	}
	return eligible, nil
}

var builtinQuestions = []staticQuestion{
	{domain.Question{Prompt: "What is 2+2?", Answer: "4", Category: "Math", WrongAnswers: []string{"3", "5", "22"}}, 1},
	{domain.Question{Prompt: "What is the capital of France?", Answer: "Paris", Category: "Geography", WrongAnswers: []string{"Lyon", "Marseille", "Nice"}}, 1},
	{domain.Question{Prompt: "What is the capital of Japan?", Answer: "Tokyo", Category: "Geography", WrongAnswers: []string{"Kyoto", "Osaka", "Nagoya"}}, 1},
	{domain.Question{Prompt: "Who wrote Romeo and Juliet?", Answer: "Shakespeare", Category: "Literature", WrongAnswers: []string{"Dickens", "Chaucer", "Marlowe"}}, 1},
	{domain.Question{Prompt: "How many continents are there?", Answer: "7", Category: "Geography", WrongAnswers: []string{"5", "6", "8"}}, 1},
	{domain.Question{Prompt: "What planet is known as the Red Planet?", Answer: "Mars", Category: "Science", WrongAnswers: []string{"Venus", "Jupiter", "Mercury"}}, 1},
	{domain.Question{Prompt: "What is the largest ocean on Earth?", Answer: "Pacific", Category: "Geography", WrongAnswers: []string{"Atlantic", "Indian", "Arctic"}}, 2},
	{domain.Question{Prompt: "What gas do plants absorb from the atmosphere?", Answer: "Carbon dioxide", Category: "Science", WrongAnswers: []string{"Oxygen", "Nitrogen", "Hydrogen"}}, 2},
	{domain.Question{Prompt: "In which year did World War II end?", Answer: "1945", Category: "History", WrongAnswers: []string{"1943", "1944", "1946"}}, 2},
	{domain.Question{Prompt: "Who painted the Mona Lisa?", Answer: "Leonardo da Vinci", Category: "Art", WrongAnswers: []string{"Michelangelo", "Raphael", "Donatello"}}, 2},
	{domain.Question{Prompt: "What is the chemical symbol for gold?", Answer: "Au", Category: "Science", WrongAnswers: []string{"Ag", "Go", "Gd"}}, 3},
	{domain.Question{Prompt: "Which country hosted the 1964 Summer Olympics?", Answer: "Japan", Category: "Sports", WrongAnswers: []string{"Italy", "Mexico", "Australia"}}, 3},
	{domain.Question{Prompt: "What is the smallest prime number greater than 100?", Answer: "101", Category: "Math", WrongAnswers: []string{"103", "107", "109"}}, 4},
	{domain.Question{Prompt: "Who composed The Rite of Spring?", Answer: "Stravinsky", Category: "Music", WrongAnswers: []string{"Debussy", "Ravel", "Prokofiev"}}, 4},
	{domain.Question{Prompt: "What is the only metal that is liquid at room temperature?", Answer: "Mercury", Category: "Science", WrongAnswers: []string{"Gallium", "Bromine", "Cesium"}}, 4},
	{domain.Question{Prompt: "Which treaty established the European Economic Community in 1957?", Answer: "Treaty of Rome", Category: "History", WrongAnswers: []string{"Treaty of Paris", "Treaty of Lisbon", "Treaty of Maastricht"}}, 5},
}
