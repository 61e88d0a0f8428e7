package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"docqna/internal/models"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		ghtml.WithHardWraps(),
	),
)

type qnaView struct {
	Question string
	Answer   template.HTML
}

type chatView struct {
	Question string
	Answer   template.HTML
}

type pageData struct {
	UserID  string
	Message string
	Error   string
	QnA     []qnaView
	Chat    []chatView
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.renderPage(w, pageData{})
}

func (s *Server) handleWebUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	res, _, err := s.processUpload(r)
	if err != nil {
		s.renderPage(w, pageData{Error: err.Error()})
		return
	}
	s.renderPage(w, pageData{
		UserID:  res.UserID,
		Message: "Document processed and Q&A generated.",
		QnA:     toQnAViews(res.Pairs),
	})
}

func (s *Server) handleWebChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	userID := r.FormValue("user_id")
	question := r.FormValue("question")

	turn, err := s.pipeline.Answer(r.Context(), userID, question)
	if err != nil {
		s.renderPage(w, pageData{UserID: userID, Error: err.Error()})
		return
	}
	if err := s.sessions.AppendTurn(userID, turn); err != nil {
		s.renderPage(w, pageData{UserID: userID, Error: err.Error()})
		return
	}

	sess, err := s.sessions.Get(userID)
	if err != nil {
		s.renderPage(w, pageData{UserID: userID, Error: err.Error()})
		return
	}
	s.renderPage(w, pageData{
		UserID: userID,
		QnA:    toQnAViews(sess.QnA),
		Chat:   toChatViews(sess.Chat),
	})
}

func (s *Server) renderPage(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toQnAViews(pairs []models.QnAPair) []qnaView {
	views := make([]qnaView, 0, len(pairs))
	for _, p := range pairs {
		views = append(views, qnaView{Question: p.Question, Answer: renderMarkdown(p.Answer)})
	}
	return views
}

func toChatViews(turns []models.ChatTurn) []chatView {
	views := make([]chatView, 0, len(turns))
	for _, t := range turns {
		views = append(views, chatView{Question: t.Question, Answer: renderMarkdown(t.Answer)})
	}
	return views
}

// renderMarkdown converts model output to HTML; raw HTML in the input is
// escaped by goldmark's default renderer.
func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}
