// Package qna parses the generation provider's reply into question/answer pairs.
package qna

import (
	"encoding/json"
	"strings"

	"docqna/internal/models"
)

// Parse extracts Q&A pairs from a model reply. It first tries to decode a JSON
// array of {question, answer} objects; when that fails it falls back to a
// line-oriented Q:/A: heuristic and reports degraded=true. A nil slice with
// degraded=true means generation produced nothing usable.
func Parse(raw string) ([]models.QnAPair, bool) {
	if pairs, ok := parseJSON(raw); ok {
		return pairs, false
	}
	return parseLines(raw), true
}

func parseJSON(raw string) ([]models.QnAPair, bool) {
	text := strings.TrimSpace(raw)
	// models often wrap the array in a code fence or surrounding prose
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, false
	}
	var pairs []models.QnAPair
	if err := json.Unmarshal([]byte(text[start:end+1]), &pairs); err != nil {
		return nil, false
	}
	return pairs, true
}

// parseLines scans the reply line by line: a line starting with "Q" and
// containing ":" opens a new question, a line starting with "A" and containing
// ":" opens its answer, and any later line continues the open answer. Pairs
// missing either side are dropped.
func parseLines(raw string) []models.QnAPair {
	var (
		pairs      []models.QnAPair
		currentQ   string
		currentA   string
		answerOpen bool
	)

	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		switch {
		case strings.HasPrefix(line, "Q") && strings.Contains(line, ":"):
			if currentQ != "" && currentA != "" {
				pairs = append(pairs, models.QnAPair{Question: currentQ, Answer: currentA})
			}
			currentQ = strings.TrimSpace(splitAfterColon(line))
			currentA = ""
			answerOpen = false
		case strings.HasPrefix(line, "A") && strings.Contains(line, ":"):
			currentA = strings.TrimSpace(splitAfterColon(line))
			answerOpen = true
		case answerOpen:
			currentA += " " + strings.TrimSpace(line)
		}
	}

	if currentQ != "" && currentA != "" {
		pairs = append(pairs, models.QnAPair{Question: currentQ, Answer: currentA})
	}
	return pairs
}

func splitAfterColon(line string) string {
	_, after, _ := strings.Cut(line, ":")
	return after
}
