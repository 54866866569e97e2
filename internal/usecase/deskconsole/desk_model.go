package deskconsole

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"civicdesk/internal/bootstrap/logging"
	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/usecase/complaint"
)

const maxShownHistory = 6
const maxAuditLines = 8

// DeskService is the slice of the complaint service the console drives.
type DeskService interface {
	ListQueue(ctx context.Context, query complaint.QueueQuery) ([]complaint.QueueItem, error)
	History(ctx context.Context, complaintID uint64) ([]complaint.HistoryItem, error)
	TransitionComplaint(ctx context.Context, input complaint.TransitionInput) (complaint.TransitionResult, error)
}

type DeskOptions struct {
	Actor           string
	Status          string
	JurisdictionID  *uint64
	RefreshInterval time.Duration
}

type deskModel struct {
	ctx             context.Context
	service         DeskService
	actor           string
	statusFilter    domain.Status
	jurisdictionID  *uint64
	refreshInterval time.Duration

	queue         []complaint.QueueItem
	selectedIndex int
	history       []complaint.HistoryItem
	hasHistory    bool
	status        string
	auditLogs     []string

	// pendingTarget is set while the observation prompt is open.
	pendingTarget domain.Status
	note          []rune
}

type queueLoadedMsg struct {
	items []complaint.QueueItem
	err   error
}

type historyLoadedMsg struct {
	complaintID uint64
	items       []complaint.HistoryItem
	err         error
}

type tickMsg struct{}

type transitionDoneMsg struct {
	trackingCode string
	target       domain.Status
	result       complaint.TransitionResult
	err          error
}

func NewDeskModel(ctx context.Context, service DeskService, options DeskOptions) tea.Model {
	statusFilter := domain.StatusReceived
	if parsed, err := domain.ParseStatus(options.Status); err == nil {
		statusFilter = parsed
	}
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &deskModel{
		ctx:             ctx,
		service:         service,
		actor:           strings.TrimSpace(options.Actor),
		statusFilter:    statusFilter,
		jurisdictionID:  options.JurisdictionID,
		refreshInterval: interval,
		status:          "loading",
	}
}

func (m *deskModel) Init() tea.Cmd {
	return tea.Batch(m.loadQueueCmd(), m.tickCmd())
}

func (m *deskModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		if m.prompting() {
			return m, m.tickCmd()
		}
		return m, tea.Batch(m.loadQueueCmd(), m.tickCmd())
	case queueLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.queue = msg.items
		if len(m.queue) == 0 {
			m.selectedIndex = 0
			m.hasHistory = false
			m.history = nil
			m.status = "queue is empty"
			return m, nil
		}
		if m.selectedIndex < 0 {
			m.selectedIndex = 0
		}
		if m.selectedIndex >= len(m.queue) {
			m.selectedIndex = len(m.queue) - 1
		}
		m.status = fmt.Sprintf("refreshed, %d complaint(s)", len(m.queue))
		return m, m.loadSelectedHistoryCmd()
	case historyLoadedMsg:
		if !m.isCurrentSelection(msg.complaintID) {
			return m, nil
		}
		if msg.err != nil {
			m.hasHistory = false
			m.history = nil
			m.status = "history failed: " + msg.err.Error()
			return m, nil
		}
		m.history = msg.items
		m.hasHistory = true
		return m, nil
	case transitionDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s -> %s failed: %v", msg.trackingCode, msg.target, msg.err)
			m.appendAuditLog(msg.trackingCode, msg.target, msg.err)
		} else {
			m.status = fmt.Sprintf("%s moved %s -> %s", msg.trackingCode, msg.result.From, msg.result.To)
			m.appendAuditLog(msg.trackingCode, msg.target, nil)
		}
		return m, m.loadQueueCmd()
	case tea.KeyMsg:
		if m.prompting() {
			return m.updatePrompt(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadQueueCmd()
		case "tab":
			m.statusFilter = nextStatusFilter(m.statusFilter)
			m.selectedIndex = 0
			m.status = "showing " + string(m.statusFilter)
			return m, m.loadQueueCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				return m, m.loadSelectedHistoryCmd()
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.queue)-1 {
				m.selectedIndex++
				return m, m.loadSelectedHistoryCmd()
			}
			return m, nil
		case "r":
			return m, m.beginTransition(domain.StatusInReview)
		case "v":
			return m, m.beginTransition(domain.StatusResolved)
		case "x":
			return m, m.beginTransition(domain.StatusRejected)
		}
	}
	return m, nil
}

func (m *deskModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.pendingTarget = ""
		m.note = nil
		m.status = "cancelled"
		return m, nil
	case tea.KeyEnter:
		return m, m.submitTransitionCmd()
	case tea.KeyBackspace:
		if len(m.note) > 0 {
			m.note = m.note[:len(m.note)-1]
		}
		return m, nil
	case tea.KeySpace:
		m.note = append(m.note, ' ')
		return m, nil
	case tea.KeyRunes:
		m.note = append(m.note, msg.Runes...)
		return m, nil
	}
	return m, nil
}

func (m *deskModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Complaint Desk"))
	builder.WriteString("\n")
	jurisdiction := "all"
	if m.jurisdictionID != nil {
		jurisdiction = fmt.Sprintf("%d", *m.jurisdictionID)
	}
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"actor=%s status=%s jurisdiction=%s refresh=%s",
		firstNonEmpty(m.actor, "system"),
		m.statusFilter,
		jurisdiction,
		m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Queue"))
	builder.WriteString("\n")
	if len(m.queue) == 0 {
		builder.WriteString(dimStyle.Render("- no complaints"))
		builder.WriteString("\n\n")
	} else {
		for index, item := range m.queue {
			line := fmt.Sprintf("%s [%s] %s %s", item.TrackingCode, item.Category, item.District, item.CreatedAt)
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if selected, ok := m.selected(); !ok {
		builder.WriteString(dimStyle.Render("- no detail"))
		builder.WriteString("\n\n")
	} else {
		builder.WriteString(fmt.Sprintf("Tracking: %s (id %d)\n", selected.TrackingCode, selected.ComplaintID))
		builder.WriteString(fmt.Sprintf("Status: %s\n", selected.Status))
		builder.WriteString(fmt.Sprintf("Description: %s\n", firstLine(selected.Description)))
		builder.WriteString("\nHistory:\n")
		if !m.hasHistory || len(m.history) == 0 {
			builder.WriteString("- none\n")
		} else {
			start := len(m.history) - maxShownHistory
			if start < 0 {
				start = 0
			}
			for _, item := range m.history[start:] {
				builder.WriteString(fmt.Sprintf("- %s %s -> %s by %s: %s\n",
					item.CreatedAt, item.From, item.To, firstNonEmpty(item.Actor, "system"), firstLine(item.Observation)))
			}
		}
		builder.WriteString("\n")
	}

	if m.prompting() {
		builder.WriteString(sectionStyle.Render("Observation for " + string(m.pendingTarget)))
		builder.WriteString("\n")
		builder.WriteString("> " + string(m.note) + "_\n\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Audit Log"))
	builder.WriteString("\n")
	if len(m.auditLogs) == 0 {
		builder.WriteString(dimStyle.Render("- no actions"))
		builder.WriteString("\n\n")
	} else {
		for _, line := range m.auditLogs {
			builder.WriteString("- " + line)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	if m.prompting() {
		builder.WriteString(dimStyle.Render("Keys: enter submit  esc cancel"))
	} else {
		builder.WriteString(dimStyle.Render("Keys: up/k down/j move  tab status  g refresh  r review  v resolve  x reject  q quit"))
	}
	return builder.String()
}

func (m *deskModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *deskModel) loadQueueCmd() tea.Cmd {
	query := complaint.QueueQuery{Status: string(m.statusFilter), JurisdictionID: m.jurisdictionID}
	return func() tea.Msg {
		items, err := m.service.ListQueue(m.ctx, query)
		return queueLoadedMsg{items: items, err: err}
	}
}

func (m *deskModel) loadSelectedHistoryCmd() tea.Cmd {
	selected, ok := m.selected()
	if !ok {
		return nil
	}
	complaintID := selected.ComplaintID
	return func() tea.Msg {
		items, err := m.service.History(m.ctx, complaintID)
		return historyLoadedMsg{complaintID: complaintID, items: items, err: err}
	}
}

// beginTransition opens the observation prompt when target is reachable from
// the selected complaint.
func (m *deskModel) beginTransition(target domain.Status) tea.Cmd {
	selected, ok := m.selected()
	if !ok {
		m.status = "no complaint selected"
		return nil
	}
	if !domain.CanTransition(selected.Status, target) {
		m.status = fmt.Sprintf("%s cannot move %s -> %s", selected.TrackingCode, selected.Status, target)
		return nil
	}
	m.pendingTarget = target
	m.note = nil
	m.status = "enter an observation"
	return nil
}

func (m *deskModel) submitTransitionCmd() tea.Cmd {
	selected, ok := m.selected()
	target := m.pendingTarget
	observation := strings.TrimSpace(string(m.note))
	if !ok {
		m.pendingTarget = ""
		m.note = nil
		m.status = "no complaint selected"
		return nil
	}
	if observation == "" {
		m.status = "observation is required"
		return nil
	}

	m.pendingTarget = ""
	m.note = nil
	m.status = fmt.Sprintf("moving %s -> %s", selected.TrackingCode, target)
	input := complaint.TransitionInput{
		ComplaintID: selected.ComplaintID,
		Target:      string(target),
		Actor:       m.actor,
		Observation: observation,
	}
	trackingCode := selected.TrackingCode
	return func() tea.Msg {
		result, err := m.service.TransitionComplaint(m.ctx, input)
		return transitionDoneMsg{trackingCode: trackingCode, target: target, result: result, err: err}
	}
}

func (m *deskModel) prompting() bool {
	return m.pendingTarget != ""
}

func (m *deskModel) selected() (complaint.QueueItem, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.queue) {
		return complaint.QueueItem{}, false
	}
	return m.queue[m.selectedIndex], true
}

func (m *deskModel) isCurrentSelection(complaintID uint64) bool {
	selected, ok := m.selected()
	return ok && selected.ComplaintID == complaintID
}

func (m *deskModel) appendAuditLog(trackingCode string, target domain.Status, opErr error) {
	outcome := "ok"
	if opErr != nil {
		outcome = "error: " + opErr.Error()
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	line := fmt.Sprintf("%s actor=%s complaint=%s to=%s result=%s", timestamp, firstNonEmpty(m.actor, "system"), trackingCode, target, outcome)
	m.auditLogs = append([]string{line}, m.auditLogs...)
	if len(m.auditLogs) > maxAuditLines {
		m.auditLogs = m.auditLogs[:maxAuditLines]
	}

	logging.Info(m.ctx, "desk console action",
		slog.String("actor", m.actor),
		slog.String("tracking_code", trackingCode),
		slog.String("to", string(target)),
		slog.String("result", outcome),
	)
}

func nextStatusFilter(current domain.Status) domain.Status {
	statuses := domain.Statuses()
	for index, status := range statuses {
		if status == current {
			return statuses[(index+1)%len(statuses)]
		}
	}
	return domain.StatusReceived
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if normalized != "" {
			return normalized
		}
	}
	return ""
}

func firstLine(body string) string {
	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		if line != "" {
			return line
		}
	}
	return "-"
}
