package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/feltcraft/cardroom/internal/deck"
	"github.com/feltcraft/cardroom/internal/game"
	"github.com/feltcraft/cardroom/internal/room"
	"github.com/feltcraft/cardroom/internal/server"
	"github.com/feltcraft/cardroom/internal/table"
)

// WatchCmd connects to a running server as an interactive player or
// spectator.
type WatchCmd struct {
	Server  string `short:"s" default:"http://localhost:8080" help:"Server URL to connect to"`
	Name    string `short:"n" help:"Player name (prompted for when omitted)"`
	Table   string `short:"t" help:"Table name or id to join after connecting"`
	BuyIn   int    `short:"b" help:"Buy-in when joining a table (defaults to the table minimum)"`
	LogFile string `default:"cardroom-watch.log" help:"Debug log file"`
}

func (c *WatchCmd) Run() error {
	if c.Name == "" {
		fmt.Print("Enter your player name: ")
		var input string
		_, _ = fmt.Scanln(&input)
		c.Name = strings.TrimSpace(input)
		if c.Name == "" {
			return fmt.Errorf("player name is required")
		}
	}

	// The terminal belongs to the TUI; debug logging goes to a file.
	logFile, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	logger := log.New(logFile)

	client := newWSClient(c.Server, logger)
	if err := client.connect(); err != nil {
		return err
	}
	defer client.close()

	model := newWatchModel(client, c.Name, c.Table, c.BuyIn, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// serverFrame wraps one incoming websocket frame as a tea message.
type serverFrame struct{ msg *server.Message }

// connClosed reports that the connection to the server dropped.
type connClosed struct{}

type watchModel struct {
	client *wsClient
	logger *log.Logger

	logView viewport.Model
	input   textinput.Model

	name     string
	playerID string
	autoJoin string
	buyIn    int

	tables    []table.Info
	state     table.View
	tableID   string
	seat      int
	holeCards []deck.Card
	prompt    *server.ActionRequiredData

	lines    []string
	width    int
	height   int
	quitting bool
}

func newWatchModel(client *wsClient, name, autoJoin string, buyIn int, logger *log.Logger) *watchModel {
	vp := viewport.New(10, 5)

	ti := textinput.New()
	ti.Placeholder = "tables | join <table> | start | check call bet raise fold | quit"
	ti.Focus()
	ti.CharLimit = 100
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)

	return &watchModel{
		client:   client,
		logger:   logger.WithPrefix("tui"),
		logView:  vp,
		input:    ti,
		name:     name,
		autoJoin: autoJoin,
		buyIn:    buyIn,
		seat:     -1,
	}
}

func (m *watchModel) Init() tea.Cmd {
	m.send(server.MessageTypeAuth, server.AuthData{Name: m.name})
	return tea.Batch(textinput.Blink, m.nextFrame())
}

// nextFrame waits for the next server frame. Update re-arms it after
// handling each one.
func (m *watchModel) nextFrame() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.client.frames
		if !ok {
			return connClosed{}
		}
		return serverFrame{msg: msg}
	}
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case connClosed:
		m.quitting = true
		return m, tea.Sequence(tea.ClearScreen, tea.Quit)

	case serverFrame:
		m.handleFrame(msg.msg)
		cmds = append(cmds, m.nextFrame())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if quit := m.runCommand(line); quit {
				m.quitting = true
				return m, tea.Sequence(tea.ClearScreen, tea.Quit)
			}
		case "pgup":
			m.logView.HalfPageUp()
		case "pgdown":
			m.logView.HalfPageDown()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	// Keys go to the input line only; the viewport scrolls via PgUp/PgDn.
	if _, isKey := msg.(tea.KeyMsg); !isKey {
		m.logView, cmd = m.logView.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// addLine appends to the event log and keeps it pinned to the bottom.
func (m *watchModel) addLine(line string) {
	m.lines = append(m.lines, line)
	m.logView.SetContent(strings.Join(m.lines, "\n"))
	if m.logView.Height > 0 && m.logView.Width > 0 {
		m.logView.GotoBottom()
	}
}

func (m *watchModel) send(messageType server.MessageType, data any) {
	if err := m.client.sendCommand(messageType, data); err != nil {
		m.addLine(errorStyle.Render(fmt.Sprintf("Send failed: %v", err)))
	}
}

func (m *watchModel) decode(msg *server.Message, v any) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		m.logger.Error("Failed to decode frame", "type", msg.Type, "error", err)
		return false
	}
	return true
}

func (m *watchModel) handleFrame(msg *server.Message) {
	switch msg.Type {
	case server.MessageTypeAuthResponse:
		var data server.AuthResponseData
		if !m.decode(msg, &data) {
			return
		}
		m.playerID = data.PlayerID
		m.addLine(successStyle.Render(fmt.Sprintf("Authenticated as %s", data.Name)))
		m.send(server.MessageTypeListTables, struct{}{})

	case server.MessageTypeError:
		var data server.ErrorData
		if !m.decode(msg, &data) {
			return
		}
		m.addLine(errorStyle.Render(fmt.Sprintf("Error: %s (%s)", data.Message, data.Code)))

	case server.MessageTypeTableList:
		var data server.TableListData
		if !m.decode(msg, &data) {
			return
		}
		m.tables = data.Tables
		m.addLine(infoStyle.Render("Tables:"))
		for _, info := range data.Tables {
			m.addLine(fmt.Sprintf("  %-12s %d/%d seats, blinds %d/%d, buy-in %d..%d",
				info.Name, info.Seated, info.MaxSeats,
				info.SmallBlind, info.BigBlind, info.MinBuyIn, info.MaxBuyIn))
		}
		if m.autoJoin != "" {
			name := m.autoJoin
			m.autoJoin = ""
			m.joinTable(name, m.buyIn)
		}

	case server.MessageTypeTableCreated:
		var info table.Info
		if !m.decode(msg, &info) {
			return
		}
		m.tables = append(m.tables, info)
		m.addLine(successStyle.Render(fmt.Sprintf("Created table %s (blinds %d/%d)", info.Name, info.SmallBlind, info.BigBlind)))

	case server.MessageTypeTableJoined:
		var data server.TableJoinedData
		if !m.decode(msg, &data) {
			return
		}
		m.tableID = data.TableID
		m.seat = data.Seat
		m.state = data.State
		m.addLine(successStyle.Render(fmt.Sprintf("Joined %s at seat %d", data.State.Name, data.Seat)))

	case server.MessageTypeTableLeft:
		m.addLine(infoStyle.Render("Left the table"))
		m.tableID = ""
		m.seat = -1
		m.state = table.View{}
		m.holeCards = nil
		m.prompt = nil

	case server.MessageTypeHandAck:
		// The hand_started broadcast carries the announcement.

	case server.MessageTypeState:
		var data server.StateData
		if !m.decode(msg, &data) {
			return
		}
		m.state = data.State
		m.seat = data.State.YourSeat
		if m.tableID == "" {
			m.tableID = data.TableID
			m.addLine(infoStyle.Render(fmt.Sprintf("Watching %s", data.State.Name)))
		}

	case server.MessageTypeHoleCards:
		var data server.HoleCardsData
		if !m.decode(msg, &data) {
			return
		}
		m.holeCards = data.Cards
		m.addLine(handInfoStyle.Render("Your cards: " + renderCards(data.Cards)))

	case server.MessageTypeActionRequired:
		var data server.ActionRequiredData
		if !m.decode(msg, &data) {
			return
		}
		m.prompt = &data
		m.state = data.State
		m.addLine(actionsStyle.Render("Your turn: " + formatValidActions(data.ValidActions)))

	default:
		m.handleEvent(msg)
	}
}

// handleEvent projects broadcast game events onto the local table view.
func (m *watchModel) handleEvent(msg *server.Message) {
	switch game.EventType(msg.Type) {
	case game.EventHandStarted:
		var e game.HandStarted
		if !m.decode(msg, &e) || e.TableID != m.tableID {
			return
		}
		m.holeCards = nil
		m.prompt = nil
		m.applyHandStarted(e)
		m.addLine(handInfoStyle.Render(fmt.Sprintf("--- New hand, blinds %d/%d ---", e.SmallBlind, e.BigBlind)))

	case game.EventPlayerActed:
		var e game.PlayerActed
		if !m.decode(msg, &e) || e.TableID != m.tableID {
			return
		}
		m.applyPlayerActed(e)
		line := fmt.Sprintf("%s %s", m.seatName(e.Seat), describeAction(e))
		if e.Forced {
			line += " (timed out)"
		}
		m.addLine(line)

	case game.EventCardsRevealed:
		var e game.CardsRevealed
		if !m.decode(msg, &e) || e.TableID != m.tableID {
			return
		}
		m.applyCardsRevealed(e)
		m.addLine(fmt.Sprintf("%s: %s  (pot %d)", e.Phase.String(), renderCards(e.Cards), e.Pot))

	case game.EventPotAwarded:
		var e game.PotAwarded
		if !m.decode(msg, &e) || e.TableID != m.tableID {
			return
		}
		for _, share := range e.Shares {
			m.addLine(fmt.Sprintf("Pot %d: %s wins %d", e.PotIndex+1, m.seatName(share.Seat), share.Amount))
		}

	case game.EventHandEnded:
		var e game.HandEnded
		if !m.decode(msg, &e) || e.TableID != m.tableID {
			return
		}
		for _, s := range e.Showings {
			m.addLine(fmt.Sprintf("%s shows %s (%s)", m.seatName(s.Seat), renderCards(s.HoleCards), s.HandName))
		}
		m.addLine(warningStyle.Render(e.Summary))
		m.applyHandEnded(e)

	case game.EventTableUpdated:
		var e game.TableUpdated
		if !m.decode(msg, &e) || e.TableID != m.tableID {
			return
		}
		m.applyTableUpdated(e)

	default:
		m.logger.Debug("Unhandled frame", "type", msg.Type)
	}
}

func (m *watchModel) applyHandStarted(e game.HandStarted) {
	m.state.HandID = e.HandID
	m.state.Phase = game.PhasePreflop.String()
	m.state.Status = "playing"
	m.state.Board = nil
	m.state.Button = e.Button
	m.state.ToAct = e.NextToAct
	m.state.CurrentBet = e.BigBlind

	pot := 0
	seats := make([]table.SeatView, 0, len(e.Seats))
	for _, s := range e.Seats {
		pot += s.Bet
		seats = append(seats, table.SeatView{
			Number:   s.Seat,
			PlayerID: s.PlayerID,
			Name:     s.Name,
			Stack:    s.Stack,
			Bet:      s.Bet,
			Acting:   s.Seat == e.NextToAct,
		})
	}
	m.state.Seats = seats
	m.state.Pot = pot
}

func (m *watchModel) applyPlayerActed(e game.PlayerActed) {
	m.state.Pot = e.Pot
	m.state.ToAct = e.NextToAct
	for i := range m.state.Seats {
		sv := &m.state.Seats[i]
		sv.Acting = sv.Number == e.NextToAct
		if sv.Number != e.Seat {
			continue
		}
		sv.LastAction = e.Action.String()
		if e.Action == game.Fold {
			sv.Folded = true
		}
		if e.AllIn {
			sv.AllIn = true
		}
	}
}

func (m *watchModel) applyCardsRevealed(e game.CardsRevealed) {
	m.state.Phase = e.Phase.String()
	m.state.Board = e.Board
	m.state.Pot = e.Pot
	m.state.ToAct = e.NextToAct
	m.state.CurrentBet = 0
	for i := range m.state.Seats {
		m.state.Seats[i].Bet = 0
		m.state.Seats[i].Acting = m.state.Seats[i].Number == e.NextToAct
	}
}

func (m *watchModel) applyHandEnded(e game.HandEnded) {
	m.prompt = nil
	m.holeCards = nil
	m.state.HandID = ""
	m.state.Phase = ""
	m.state.Pot = 0
	m.state.CurrentBet = 0
	m.state.ToAct = -1
	for i := range m.state.Seats {
		sv := &m.state.Seats[i]
		sv.Bet = 0
		sv.Folded = false
		sv.AllIn = false
		sv.Acting = false
		sv.LastAction = ""
		for _, final := range e.Seats {
			if final.Seat == sv.Number {
				sv.Stack = final.Stack
			}
		}
	}
}

func (m *watchModel) applyTableUpdated(e game.TableUpdated) {
	m.state.Status = e.Status
	m.state.Button = e.Button
	if e.HandInPlay {
		return
	}
	seats := make([]table.SeatView, 0, len(e.Seats))
	for _, s := range e.Seats {
		seats = append(seats, table.SeatView{
			Number:   s.Seat,
			PlayerID: s.PlayerID,
			Name:     s.Name,
			Stack:    s.Stack,
		})
	}
	m.state.Seats = seats
}

// seatName resolves a seat number to the player's name for log lines.
func (m *watchModel) seatName(seat int) string {
	for _, sv := range m.state.Seats {
		if sv.Number == seat && sv.Name != "" {
			if seat == m.seat {
				return sv.Name + " (you)"
			}
			return sv.Name
		}
	}
	return fmt.Sprintf("seat %d", seat)
}

// runCommand executes one input line. It reports whether to quit.
func (m *watchModel) runCommand(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true

	case "help", "?":
		m.printHelp()

	case "tables", "list":
		m.send(server.MessageTypeListTables, struct{}{})

	case "create":
		if len(args) < 3 {
			m.addLine(errorStyle.Render("Usage: create <name> <small-blind> <big-blind>"))
			return false
		}
		sb, err1 := strconv.Atoi(args[1])
		bb, err2 := strconv.Atoi(args[2])
		if err1 != nil || err2 != nil {
			m.addLine(errorStyle.Render("Blinds must be numbers"))
			return false
		}
		m.send(server.MessageTypeCreateTable, room.CreateTableParams{
			Name:       args[0],
			SmallBlind: sb,
			BigBlind:   bb,
		})

	case "join":
		if len(args) == 0 {
			m.addLine(errorStyle.Render("Usage: join <table> [buy-in]"))
			return false
		}
		buyIn := m.buyIn
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				m.addLine(errorStyle.Render("Buy-in must be a number"))
				return false
			}
			buyIn = n
		}
		m.joinTable(args[0], buyIn)

	case "watch":
		if len(args) == 0 {
			m.addLine(errorStyle.Render("Usage: watch <table>"))
			return false
		}
		info, ok := m.findTable(args[0])
		if !ok {
			m.addLine(errorStyle.Render(fmt.Sprintf("Unknown table %q, try 'tables' first", args[0])))
			return false
		}
		m.tableID = ""
		m.send(server.MessageTypeGetState, server.GetStateData{TableID: info.TableID})

	case "leave":
		if !m.requireTable() {
			return false
		}
		m.send(server.MessageTypeLeaveTable, server.LeaveTableData{TableID: m.tableID})

	case "start", "deal":
		if !m.requireTable() {
			return false
		}
		m.send(server.MessageTypeStartHand, server.StartHandData{TableID: m.tableID})

	case "state":
		if !m.requireTable() {
			return false
		}
		m.send(server.MessageTypeGetState, server.GetStateData{TableID: m.tableID})

	case "fold", "check", "call":
		m.act(cmd, 0)

	case "bet", "raise":
		if len(args) == 0 {
			m.addLine(errorStyle.Render(fmt.Sprintf("Usage: %s <total>", cmd)))
			return false
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			m.addLine(errorStyle.Render("Amount must be a number"))
			return false
		}
		m.act(cmd, n)

	case "allin", "all-in":
		m.allIn()

	default:
		m.addLine(errorStyle.Render(fmt.Sprintf("Unknown command %q, try 'help'", cmd)))
	}
	return false
}

func (m *watchModel) printHelp() {
	m.addLine(infoStyle.Render("Commands:"))
	m.addLine("  tables              list tables")
	m.addLine("  create <name> <sb> <bb>")
	m.addLine("  join <table> [amt]  take a seat (buy-in defaults to the table minimum)")
	m.addLine("  watch <table>       spectate without a seat")
	m.addLine("  start               deal the next hand")
	m.addLine("  check / call / fold")
	m.addLine("  bet <total> / raise <total> / allin")
	m.addLine("  leave, state, quit")
}

func (m *watchModel) requireTable() bool {
	if m.tableID == "" {
		m.addLine(errorStyle.Render("Not at a table, try 'join <table>'"))
		return false
	}
	return true
}

// findTable resolves a name or id against the last table listing. Raw
// table ids work even when the listing is stale.
func (m *watchModel) findTable(nameOrID string) (table.Info, bool) {
	for _, info := range m.tables {
		if info.Name == nameOrID || info.TableID == nameOrID {
			return info, true
		}
	}
	if strings.HasPrefix(nameOrID, "tbl_") {
		return table.Info{TableID: nameOrID, Name: nameOrID}, true
	}
	return table.Info{}, false
}

func (m *watchModel) joinTable(nameOrID string, buyIn int) {
	info, ok := m.findTable(nameOrID)
	if !ok {
		m.addLine(errorStyle.Render(fmt.Sprintf("Unknown table %q, try 'tables' first", nameOrID)))
		return
	}
	if buyIn <= 0 {
		buyIn = info.MinBuyIn
	}
	m.send(server.MessageTypeJoinTable, server.JoinTableData{TableID: info.TableID, BuyIn: buyIn})
}

func (m *watchModel) act(action string, amount int) {
	if !m.requireTable() {
		return
	}
	m.prompt = nil
	m.send(server.MessageTypeAct, server.ActData{TableID: m.tableID, Action: action, Amount: amount})
}

// allIn translates to the largest legal sizing action, since the engine
// has no separate all-in verb.
func (m *watchModel) allIn() {
	if m.prompt == nil {
		m.addLine(errorStyle.Render("Not your turn"))
		return
	}
	for _, va := range m.prompt.ValidActions {
		if va.Action == game.Bet || va.Action == game.Raise {
			m.act(va.Action.String(), va.Max)
			return
		}
	}
	m.act(game.Call.String(), 0)
}

func (m *watchModel) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent) + 2

	sidebarWidth := 38
	if sidebarWidth > m.width/2 {
		sidebarWidth = m.width / 2
	}
	paneHeight := m.height - actionHeight - 2
	logWidth := m.width - sidebarWidth - 4
	if paneHeight < 1 {
		paneHeight = 1
	}
	if logWidth < 1 {
		logWidth = 1
	}

	m.logView.Width = logWidth
	m.logView.Height = paneHeight
	m.logView.SetContent(strings.Join(m.lines, "\n"))

	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(logWidth).
		Height(paneHeight).
		Render(m.logView.View())

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth - 2).
		Height(paneHeight).
		Render(m.renderTablePane())

	actionPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(m.width - 2).
		Render(actionContent)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *watchModel) renderTablePane() string {
	if m.state.TableID == "" {
		return infoStyle.Render("No table.\nType 'tables' to list,\n'join <table>' to sit.")
	}

	var b strings.Builder
	b.WriteString(handInfoStyle.Render(fmt.Sprintf("%s  %d/%d", m.state.Name, m.state.SmallBlind, m.state.BigBlind)))
	b.WriteString("\n")
	status := m.state.Status
	if m.state.Phase != "" {
		status += "  " + m.state.Phase
	}
	b.WriteString(infoStyle.Render(status))
	b.WriteString("\n\n")

	board := "--"
	if len(m.state.Board) > 0 {
		board = renderCards(m.state.Board)
	}
	b.WriteString("Board: " + board + "\n")
	b.WriteString(warningStyle.Render(fmt.Sprintf("Pot: %d", m.state.Pot)))
	if m.state.CurrentBet > 0 {
		b.WriteString(warningStyle.Render(fmt.Sprintf("  Bet: %d", m.state.CurrentBet)))
	}
	b.WriteString("\n\n")

	for _, sv := range m.state.Seats {
		marker := "  "
		if sv.Number == m.state.Button {
			marker = "B "
		}
		if sv.Acting {
			marker = "> "
		}
		name := sv.Name
		if sv.Number == m.seat {
			name += " (you)"
		}
		line := fmt.Sprintf("%s%d %-14s %6d", marker, sv.Number, name, sv.Stack)
		switch {
		case sv.Folded:
			line = infoStyle.Render(line + "  folded")
		case sv.AllIn:
			line = warningStyle.Render(line + "  all-in")
		case sv.Bet > 0:
			line += fmt.Sprintf("  bet %d", sv.Bet)
		}
		b.WriteString(line + "\n")
	}

	if len(m.holeCards) > 0 {
		b.WriteString("\n" + handInfoStyle.Render("Your cards: "+renderCards(m.holeCards)))
	}
	return b.String()
}

func (m *watchModel) renderActionPane() string {
	var b strings.Builder
	if m.prompt != nil {
		b.WriteString(actionsStyle.Render("Your turn: " + formatValidActions(m.prompt.ValidActions)))
		if m.prompt.TimeoutSeconds > 0 {
			b.WriteString(infoStyle.Render(fmt.Sprintf("  (%ds to act)", m.prompt.TimeoutSeconds)))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(infoStyle.Render("PgUp/PgDn to scroll • Enter to submit • Ctrl+C to quit"))
	return b.String()
}

func formatValidActions(actions []game.ValidAction) string {
	var parts []string
	for _, va := range actions {
		switch va.Action {
		case game.Fold:
			parts = append(parts, "[fold]")
		case game.Check:
			parts = append(parts, "[check]")
		case game.Call:
			parts = append(parts, fmt.Sprintf("[call %d]", va.Min))
		case game.Bet:
			parts = append(parts, fmt.Sprintf("[bet %d..%d]", va.Min, va.Max))
		case game.Raise:
			parts = append(parts, fmt.Sprintf("[raise to %d..%d]", va.Min, va.Max))
		}
	}
	if len(parts) == 0 {
		return "[none]"
	}
	return strings.Join(parts, " ")
}

// describeAction phrases a PlayerActed event for the log.
func describeAction(e game.PlayerActed) string {
	switch e.Action {
	case game.Fold:
		return "folds"
	case game.Check:
		return "checks"
	case game.Call:
		if e.AllIn {
			return fmt.Sprintf("calls %d all-in", e.Amount)
		}
		return fmt.Sprintf("calls %d", e.Amount)
	case game.Bet:
		if e.AllIn {
			return fmt.Sprintf("bets %d all-in", e.Amount)
		}
		return fmt.Sprintf("bets %d", e.Amount)
	case game.Raise:
		if e.AllIn {
			return fmt.Sprintf("raises to %d all-in", e.Amount)
		}
		return fmt.Sprintf("raises to %d", e.Amount)
	default:
		return e.Action.String()
	}
}

func renderCards(cards []deck.Card) string {
	var parts []string
	for _, card := range cards {
		if card.IsRed() {
			parts = append(parts, redCardStyle.Render(card.String()))
		} else {
			parts = append(parts, blackCardStyle.Render(card.String()))
		}
	}
	return strings.Join(parts, " ")
}
