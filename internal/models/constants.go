package models

const (
	// DefaultAnswer is returned when the generation provider yields no usable text.
	DefaultAnswer = "No answer available."

	ChatSystemPrompt = "You are a helpful assistant. Use the provided context to answer the query."
)

var (
	QnAPromptTemplate = `Based on the following document, generate %d important interview-style questions along with detailed answers in the format:
[{"question": "...", "answer": "..."}, ...]
Return a JSON array.

Document:
%s`

	ChatPromptTemplate = `Context:
%s
Chat history:
%s
Query: %s`
)
