// Package tui is a standalone terminal shell over the pipeline: it shows the
// Q&A generated for an ingested document and supports follow-up chat.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqna/internal/models"
	"docqna/internal/session"
)

// ChatPort is the TUI-facing subset of the pipeline.
type ChatPort interface {
	Answer(ctx context.Context, userID, question string) (models.ChatTurn, error)
}

// Model is the Bubble Tea model for the chat shell.
type Model struct {
	service    ChatPort
	sessions   session.Store
	userID     string
	qna        []models.QnAPair
	transcript []models.ChatTurn
	input      textinput.Model
	viewport   viewport.Model
	status     string
	ready      bool
}

// New creates a new TUI model instance.
func New(service ChatPort, sessions session.Store, userID string, qna []models.QnAPair) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your document and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		sessions: sessions,
		userID:   userID,
		qna:      qna,
		input:    ti,
		viewport: vp,
		status:   fmt.Sprintf("Generated %d Q&A pairs. Ask away.", len(qna)),
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := contentBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header + status + input box + spacer
		vh := msg.Height - reserved - fh
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderContent())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				turn, err := m.service.Answer(context.Background(), m.userID, q)
				if err != nil {
					m.status = "Error: " + err.Error()
				} else {
					if err := m.sessions.AppendTurn(m.userID, turn); err != nil {
						m.status = "Error: " + err.Error()
					} else {
						m.transcript = append(m.transcript, turn)
						m.status = fmt.Sprintf("%d turns in conversation", len(m.transcript))
						m.input.SetValue("")
					}
				}
				m.viewport.SetContent(m.renderContent())
				m.viewport.GotoBottom()
				return m, nil
			}
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Document Q&A")
	content := contentBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + content + "\n" + input + "\n" + status
}

func (m Model) renderContent() string {
	var sb strings.Builder
	if len(m.qna) > 0 {
		sb.WriteString(sectionStyle.Render("Generated Q&A") + "\n")
		for i, pair := range m.qna {
			sb.WriteString(questionStyle.Render(fmt.Sprintf("%d. %s", i+1, pair.Question)) + "\n")
			sb.WriteString(pair.Answer + "\n\n")
		}
	}
	if len(m.transcript) > 0 {
		sb.WriteString(sectionStyle.Render("Conversation") + "\n")
		for _, turn := range m.transcript {
			sb.WriteString(questionStyle.Render("You: "+turn.Question) + "\n")
			sb.WriteString(turn.Answer + "\n\n")
		}
	}
	if sb.Len() == 0 {
		return "No content yet."
	}
	return sb.String()
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	sectionStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	contentBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
