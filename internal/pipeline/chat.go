package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"docqna/internal/models"
)

// Answer embeds the question, retrieves the nearest chunks, and asks the
// generation provider with the retrieved context plus the user's transcript.
// The returned turn is not appended to the transcript; the caller decides.
func (s *Service) Answer(ctx context.Context, userID, question string) (models.ChatTurn, error) {
	sess, err := s.sessions.Get(userID)
	if err != nil {
		return models.ChatTurn{}, err
	}

	embedding, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return models.ChatTurn{}, err
	}

	filter := ""
	if s.cfg.FilterByUser {
		filter = userID
	}
	matches, err := s.store.Query(ctx, embedding, s.cfg.TopK, filter)
	if err != nil {
		return models.ChatTurn{}, err
	}
	log.Debug().Str("user_id", userID).Int("matches", len(matches)).Msg("retrieved chunks for question")

	var contextText strings.Builder
	for _, m := range matches {
		contextText.WriteString(m.Content + "\n\n")
	}

	var history strings.Builder
	for _, turn := range sess.Chat {
		history.WriteString("Q: " + turn.Question + "\n")
		history.WriteString("A: " + turn.Answer + "\n")
	}

	prompt := fmt.Sprintf(models.ChatPromptTemplate, contextText.String(), history.String(), question)
	answer, err := s.generator.Generate(ctx, models.ChatSystemPrompt, prompt)
	if err != nil {
		return models.ChatTurn{}, err
	}
	if strings.TrimSpace(answer) == "" {
		answer = models.DefaultAnswer
	}

	return models.ChatTurn{Question: question, Answer: answer}, nil
}
