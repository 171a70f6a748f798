package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/parleyhq/parley/pkg/bridge"
	"github.com/parleyhq/parley/pkg/bus"
	"github.com/parleyhq/parley/pkg/config"
	"github.com/parleyhq/parley/pkg/logging"
	"github.com/parleyhq/parley/pkg/registry"
	"github.com/parleyhq/parley/pkg/remote"
	"github.com/parleyhq/parley/pkg/session"
)

// feedbackTTL is how long a feedback banner stays visible.
const feedbackTTL = 5 * time.Second

// drainBudget bounds how many additional queued events are folded in
// after each delivered event, so a chatty subprocess cannot starve key
// handling.
const drainBudget = 64

type tickMsg time.Time

// busMsg carries one event delivered by waitForEvent.
type busMsg struct {
	ev any
}

type modelsMsg struct {
	models []registry.Model
	err    error
}

type historyMsg struct {
	data []byte
	err  error
}

// Model is the top-level program state. All session mutation happens
// inside Update; goroutines only ever hand events to the bus.
type Model struct {
	width  int
	height int
	ready  bool

	cfg    config.Config
	log    *logging.Logger
	store  *session.Store
	reg    *registry.Registry
	bridge *bridge.Bridge
	bus    *bus.Bus

	focus     Focus
	inputMode InputMode
	showList  bool

	chat  viewport.Model
	input textinput.Model

	// msgCursor selects a message in the active conversation. While it
	// sits on the newest message it follows the stream.
	msgCursor   int
	modelCursor int

	feedback      string
	feedbackUntil time.Time

	remoteOn  bool
	tickCount int
}

// New assembles the program state around already-constructed
// collaborators.
func New(cfg config.Config, log *logging.Logger, store *session.Store, reg *registry.Registry, br *bridge.Bridge, evbus *bus.Bus) Model {
	ti := textinput.New()
	ti.Placeholder = "press i to type, enter to send"
	ti.CharLimit = 0

	vp := viewport.New(40, 10)

	return Model{
		cfg:      cfg,
		log:      log,
		store:    store,
		reg:      reg,
		bridge:   br,
		bus:      evbus,
		focus:    FocusList,
		showList: true,
		chat:     vp,
		input:    ti,
	}
}

// SetRemoteOn records whether the control listener bound; the status
// bar shows degraded mode when it did not.
func (m *Model) SetRemoteOn(on bool) {
	m.remoteOn = on
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tick(),
		waitForEvent(m.bus),
		loadModels(m.reg),
	}
	if m.cfg.LoadHistory {
		cmds = append(cmds, fetchHistory(m.cfg.LLMBinary))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		m.refreshChat()
		return m, nil

	case tickMsg:
		m.tickCount++
		if m.feedback != "" && time.Now().After(m.feedbackUntil) {
			m.feedback = ""
		}
		if m.store.ConsumeDirty() {
			m.refreshChat()
		}
		return m, tick()

	case busMsg:
		// Sole reader of the bus: the armed waitForEvent delivered the
		// oldest event, and draining here keeps any newer ones behind
		// it. A second reader elsewhere could apply chunks out of order.
		m.applyEvent(msg.ev)
		for _, ev := range m.bus.Drain(drainBudget) {
			m.applyEvent(ev)
		}
		if m.store.ConsumeDirty() {
			m.refreshChat()
		}
		return m, waitForEvent(m.bus)

	case modelsMsg:
		if msg.err != nil {
			m.setFeedback("model list unavailable: " + msg.err.Error())
			return m, nil
		}
		m.reg.Install(msg.models)
		if m.modelCursor >= len(msg.models) {
			m.modelCursor = 0
		}
		return m, nil

	case historyMsg:
		if msg.err != nil {
			m.setFeedback("history import failed: " + msg.err.Error())
			return m, nil
		}
		count, err := m.store.ImportLogs(msg.data)
		if err != nil {
			m.setFeedback("history import failed: " + err.Error())
		} else if count > 0 {
			m.setFeedback(fmt.Sprintf("imported %d conversations", count))
			m.refreshChat()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	// While editing, almost everything is text.
	if m.focus == FocusInput && m.inputMode == InputEditing {
		switch msg.Type {
		case tea.KeyEsc:
			m.inputMode = InputNormal
			m.input.Blur()
			return m, nil
		case tea.KeyEnter:
			return m.submitInput()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab":
		m.cycleFocus()
		return m, nil
	case "i":
		// Jump straight to typing from any pane.
		m.focus = FocusInput
		m.inputMode = InputEditing
		return m, m.input.Focus()
	case "h":
		m.showList = !m.showList
		if !m.showList && m.focus == FocusList {
			m.cycleFocus()
		}
		m.resize()
		m.refreshChat()
		return m, nil
	case "n":
		m.newConversation("")
		return m, nil
	case "y":
		m.copySelectedMessage()
		return m, nil
	}

	switch m.focus {
	case FocusList:
		return m.handleListKey(msg)
	case FocusChat:
		return m.handleChatKey(msg)
	case FocusInput:
		if msg.String() == "enter" {
			m.inputMode = InputEditing
			return m, m.input.Focus()
		}
	case FocusModelSelect:
		return m.handleModelKey(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	convs := m.store.Conversations()
	idx := m.activeIndex(convs)
	switch msg.String() {
	case "up", "k":
		if idx > 0 {
			m.selectConversation(convs[idx-1].ID)
		}
	case "down", "j":
		if idx >= 0 && idx < len(convs)-1 {
			m.selectConversation(convs[idx+1].ID)
		}
	case "enter":
		m.focus = FocusChat
	}
	return m, nil
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	conv := m.store.ActiveConversation()
	if conv == nil || len(conv.Messages) == 0 {
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}
	switch msg.String() {
	case "up", "k":
		if m.msgCursor > 0 {
			m.msgCursor--
			m.refreshChat()
		}
		return m, nil
	case "down", "j":
		if m.msgCursor < len(conv.Messages)-1 {
			m.msgCursor++
			m.refreshChat()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	return m, cmd
}

func (m Model) handleModelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	models := m.reg.Models()
	switch msg.String() {
	case "up", "k":
		if m.modelCursor > 0 {
			m.modelCursor--
		}
	case "down", "j":
		if m.modelCursor < len(models)-1 {
			m.modelCursor++
		}
	case "enter":
		if m.modelCursor < len(models) {
			m.setActiveModel(models[m.modelCursor].ID)
		}
	case "r":
		return m, loadModels(m.reg)
	}
	return m, nil
}

// submitInput sends the typed prompt to the active conversation,
// creating one when the session is empty.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if m.submitPrompt(text) {
		m.input.SetValue("")
	}
	m.refreshChat()
	return m, nil
}

// submitPrompt appends a user message and starts the model turn.
// Returns false when the conversation already has a reply in flight;
// the typed text is kept so nothing is lost.
func (m *Model) submitPrompt(text string) bool {
	conv := m.store.ActiveConversation()
	if conv == nil {
		m.newConversation("")
		conv = m.store.ActiveConversation()
	}

	if m.store.HasPendingReply(conv.ID) {
		m.setFeedback("reply still in flight, wait for it to finish")
		return false
	}

	if _, err := m.store.AppendUserMessage(conv.ID, text); err != nil {
		m.setFeedback("send failed: " + err.Error())
		return false
	}
	msgID, err := m.store.BeginModelReply(conv.ID)
	if err != nil {
		m.setFeedback("send failed: " + err.Error())
		return false
	}

	modelID := conv.Model
	if modelID == "" {
		modelID = m.defaultModel()
	}
	if _, err := m.bridge.Submit(conv.ID, msgID, text, modelID); err != nil {
		m.store.CompleteReply(msgID, session.StatusFailed, err.Error())
		m.setFeedback("send failed: " + err.Error())
		return false
	}
	m.msgCursor = len(conv.Messages) - 1
	m.log.Info("tui", "prompt submitted", map[string]any{
		"conversation": conv.ID,
		"model":        modelID,
	})
	return true
}

func (m *Model) newConversation(modelID string) int64 {
	id := m.store.CreateConversation()
	if modelID == "" {
		modelID = m.defaultModel()
	}
	if modelID != "" {
		m.store.SetModel(id, modelID)
	}
	m.store.SelectConversation(id)
	m.msgCursor = 0
	m.refreshChat()
	return id
}

func (m *Model) selectConversation(id int64) {
	if err := m.store.SelectConversation(id); err != nil {
		return
	}
	if conv := m.store.Conversation(id); conv != nil {
		m.msgCursor = len(conv.Messages) - 1
		if m.msgCursor < 0 {
			m.msgCursor = 0
		}
	}
	m.refreshChat()
}

func (m *Model) setActiveModel(id string) {
	conv := m.store.ActiveConversation()
	if conv == nil {
		m.setFeedback("no conversation selected")
		return
	}
	if err := m.store.SetModel(conv.ID, id); err != nil {
		m.setFeedback("model switch failed: " + err.Error())
		return
	}
	m.setFeedback("model set to " + id)
}

// selectedMessage resolves msgCursor against the active conversation,
// or nil when there is nothing to select.
func (m *Model) selectedMessage() *session.Message {
	conv := m.store.ActiveConversation()
	if conv == nil || len(conv.Messages) == 0 {
		return nil
	}
	i := m.msgCursor
	if i < 0 {
		i = 0
	}
	if i > len(conv.Messages)-1 {
		i = len(conv.Messages) - 1
	}
	return &conv.Messages[i]
}

func (m *Model) copySelectedMessage() {
	msg := m.selectedMessage()
	if msg == nil || msg.Content == "" {
		m.setFeedback("nothing to copy")
		return
	}
	if err := copyToClipboard(msg.Content); err != nil {
		m.setFeedback("copy failed: " + err.Error())
		return
	}
	m.setFeedback("message copied to clipboard")
}

// applyEvent folds one bus event into session state. This is the only
// place background work touches the store.
func (m *Model) applyEvent(ev any) {
	switch ev := ev.(type) {
	case bridge.ReplyChunk:
		m.store.AppendToReply(ev.MessageID, ev.Text)
	case bridge.ReplyDone:
		m.store.CompleteReply(ev.MessageID, session.StatusComplete, "")
	case bridge.ReplyFailed:
		m.store.CompleteReply(ev.MessageID, session.StatusFailed, ev.Reason)
		m.setFeedback("model reply failed")
	case remote.CommandEvent:
		m.applyRemote(ev)
	default:
		m.log.Warn("tui", "unhandled event", map[string]any{"type": fmt.Sprintf("%T", ev)})
	}
}

func (m *Model) applyRemote(ev remote.CommandEvent) {
	m.log.Info("tui", "remote command", map[string]any{
		"conn": ev.Conn,
		"cmd":  ev.Cmd.Kind.String(),
	})
	switch ev.Cmd.Kind {
	case remote.KindNew:
		m.newConversation("")
		m.setFeedback("conversation created remotely")
	case remote.KindSend:
		if m.store.ActiveConversation() == nil {
			m.newConversation("")
		}
		m.submitPrompt(ev.Cmd.Arg)
	case remote.KindModel:
		m.setActiveModel(ev.Cmd.Arg)
	case remote.KindStatus:
		if ev.Reply != nil {
			ev.Reply <- m.statusLine()
		}
	}
}

func (m *Model) statusLine() string {
	model := "-"
	if conv := m.store.ActiveConversation(); conv != nil && conv.Model != "" {
		model = conv.Model
	}
	return fmt.Sprintf("conversations=%d pending=%d model=%s", m.store.Len(), m.store.PendingCount(), model)
}

func (m *Model) cycleFocus() {
	m.focus = m.focus.Next()
	if m.focus == FocusList && !m.showList {
		m.focus = m.focus.Next()
	}
	if m.focus == FocusInput {
		m.inputMode = InputNormal
	}
	m.input.Blur()
}

func (m *Model) defaultModel() string {
	if m.cfg.DefaultModel != "" {
		return m.cfg.DefaultModel
	}
	if models := m.reg.Models(); len(models) > 0 {
		return models[0].ID
	}
	return ""
}

func (m *Model) setFeedback(text string) {
	m.feedback = text
	m.feedbackUntil = time.Now().Add(feedbackTTL)
}

func (m *Model) activeIndex(convs []*session.Conversation) int {
	active := m.store.ActiveConversation()
	if active == nil {
		return -1
	}
	for i, c := range convs {
		if c.ID == active.ID {
			return i
		}
	}
	return -1
}

func (m *Model) resize() {
	if !m.ready {
		return
	}
	listWidth := 0
	if m.showList {
		listWidth = m.width / 4
	}
	chatWidth := m.width - listWidth - 6
	if chatWidth < 20 {
		chatWidth = 20
	}
	chatHeight := m.height - 8
	if chatHeight < 4 {
		chatHeight = 4
	}
	m.chat.Width = chatWidth
	m.chat.Height = chatHeight
	m.input.Width = m.width - 8
}

// refreshChat rebuilds the viewport content from the active
// conversation. While the cursor is on the newest message the view is
// pinned to the bottom; otherwise it scrolls to the selection.
func (m *Model) refreshChat() {
	conv := m.store.ActiveConversation()
	if conv == nil {
		m.chat.SetContent("no conversation selected, press n to start one")
		return
	}
	last := len(conv.Messages) - 1
	if m.msgCursor > last {
		m.msgCursor = last
	}
	if m.msgCursor < 0 {
		m.msgCursor = 0
	}

	var b strings.Builder
	line := 0
	selLine := 0
	for i, msg := range conv.Messages {
		if i > 0 {
			b.WriteString("\n\n")
			line += 2
		}
		if i == m.msgCursor {
			selLine = line
		}
		block := renderMessage(conv, msg, i == m.msgCursor)
		b.WriteString(block)
		line += strings.Count(block, "\n")
	}
	m.chat.SetContent(b.String())
	if m.msgCursor >= last {
		m.chat.GotoBottom()
	} else {
		m.chat.SetYOffset(selLine)
	}
}

func renderMessage(conv *session.Conversation, msg session.Message, selected bool) string {
	marker := "  "
	if selected {
		marker = selectionMarkerStyle.Render("> ")
	}
	var b strings.Builder
	b.WriteString(marker)
	switch {
	case msg.Role == session.RoleUser:
		b.WriteString(userMessageStyle.Render("you: "))
		b.WriteString(msg.Content)
	case msg.Status == session.StatusFailed:
		b.WriteString(failedMessageStyle.Render(conv.Model + ": failed"))
		if msg.Reason != "" {
			b.WriteString("\n" + failedMessageStyle.Render(msg.Reason))
		}
	default:
		b.WriteString(modelMessageStyle.Render(conv.Model + ": "))
		b.WriteString(msg.Content)
		if msg.Status == session.StatusPending {
			b.WriteString(pendingMarkerStyle.Render(" …"))
		}
	}
	return b.String()
}

func (m Model) View() string {
	if !m.ready {
		return "starting…"
	}

	panes := []string{}
	if m.showList {
		panes = append(panes, m.renderList())
	}
	if m.focus == FocusModelSelect {
		panes = append(panes, m.renderModelSelect())
	} else {
		panes = append(panes, m.renderChat())
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top, panes...)

	return lipgloss.JoinVertical(lipgloss.Left,
		top,
		m.renderInput(),
		m.renderStatusBar(),
	)
}

func (m Model) renderList() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Conversations") + "\n")
	convs := m.store.Conversations()
	idx := m.activeIndex(convs)
	for i, c := range convs {
		line := c.Name
		if c.Model != "" {
			line += " (" + c.Model + ")"
		}
		if m.store.HasPendingReply(c.ID) {
			line += " *"
		}
		if i == idx {
			b.WriteString(listItemSelectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString(listItemStyle.Render(line) + "\n")
		}
	}
	if len(convs) == 0 {
		b.WriteString(listItemStyle.Render("(none)") + "\n")
	}
	return m.pane(FocusList).Width(m.width / 4).Render(b.String())
}

func (m Model) renderChat() string {
	return m.pane(FocusChat).Render(m.chat.View())
}

func (m Model) renderModelSelect() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Models") + "\n")
	models := m.reg.Models()
	if len(models) == 0 {
		b.WriteString(listItemStyle.Render("(none, press r to reload)") + "\n")
	}
	for i, mo := range models {
		line := mo.ID
		if mo.Name != "" && mo.Name != mo.ID {
			line += "  " + mo.Name
		}
		if i == m.modelCursor {
			b.WriteString(listItemSelectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString(listItemStyle.Render(line) + "\n")
		}
	}
	return m.pane(FocusModelSelect).Render(b.String())
}

func (m Model) renderInput() string {
	return m.pane(FocusInput).Width(m.width - 4).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	if m.feedback != "" {
		return feedbackStyle.Render(m.feedback)
	}
	remoteNote := "remote off"
	if m.remoteOn {
		remoteNote = "remote " + m.cfg.ListenAddr
	}
	return statusBarStyle.Render(fmt.Sprintf(
		"%s | %s | tab: focus  i: type  n: new  h: list  y: copy  q: quit",
		m.statusLine(), remoteNote,
	))
}

func (m Model) pane(f Focus) lipgloss.Style {
	if m.focus == f {
		return paneFocusedStyle
	}
	return paneStyle
}

// Commands

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForEvent(b *bus.Bus) tea.Cmd {
	return func() tea.Msg {
		return busMsg{ev: <-b.Events()}
	}
}

func loadModels(reg *registry.Registry) tea.Cmd {
	return func() tea.Msg {
		models, err := reg.Fetch()
		return modelsMsg{models: models, err: err}
	}
}

func fetchHistory(binary string) tea.Cmd {
	return func() tea.Msg {
		data, err := session.FetchHistory(binary)
		return historyMsg{data: data, err: err}
	}
}
