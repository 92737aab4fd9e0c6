package server

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feltcraft/cardroom/internal/room"
	"github.com/feltcraft/cardroom/internal/store"
	"github.com/feltcraft/cardroom/internal/table"
)

const frameWait = 5 * time.Second

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// testServer stands up a room behind a websocket endpoint.
func testServer(t *testing.T) (*room.Room, string) {
	t.Helper()

	r := room.New(room.Deps{
		Clock:  quartz.NewMock(t),
		Logger: testLogger(),
		Store:  store.NewMemory(),
		Bus:    room.NewBus(),
		Defaults: room.TableDefaults{
			TurnTimeout: 30 * time.Second,
		},
	})
	srv := NewServer("127.0.0.1:0", r, testLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		r.Close()
	})

	return r, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

// testClient drives one websocket connection through the protocol. Frames
// arriving out of expectation order are parked until asked for.
type testClient struct {
	t        *testing.T
	conn     *websocket.Conn
	playerID string
	seat     int
	pending  []*Message
}

func dial(t *testing.T, url string) *testClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{t: t, conn: conn, seat: -1}
}

func (tc *testClient) send(msgType MessageType, data any) {
	tc.t.Helper()
	msg, err := NewMessage(msgType, data)
	require.NoError(tc.t, err)
	require.NoError(tc.t, tc.conn.WriteJSON(msg))
}

// expect returns the next frame of the wanted type, parking everything
// else it reads along the way.
func (tc *testClient) expect(msgType MessageType) *Message {
	tc.t.Helper()
	for i, m := range tc.pending {
		if m.Type == msgType {
			tc.pending = append(tc.pending[:i], tc.pending[i+1:]...)
			return m
		}
	}

	deadline := time.Now().Add(frameWait)
	for {
		require.NoError(tc.t, tc.conn.SetReadDeadline(deadline))
		var msg Message
		if err := tc.conn.ReadJSON(&msg); err != nil {
			tc.t.Fatalf("waiting for %s: %v", msgType, err)
		}
		if msg.Type == msgType {
			return &msg
		}
		tc.pending = append(tc.pending, &msg)
	}
}

// parked reports whether a frame of the given type is already buffered.
func (tc *testClient) parked(msgType MessageType) bool {
	for _, m := range tc.pending {
		if m.Type == msgType {
			return true
		}
	}
	return false
}

func decodeData(t *testing.T, msg *Message, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(msg.Data, v))
}

func (tc *testClient) auth(name string) {
	tc.t.Helper()
	tc.send(MessageTypeAuth, AuthData{Name: name})
	var resp AuthResponseData
	decodeData(tc.t, tc.expect(MessageTypeAuthResponse), &resp)
	require.NotEmpty(tc.t, resp.PlayerID)
	tc.playerID = resp.PlayerID
}

func (tc *testClient) join(tableID string, buyIn int) {
	tc.t.Helper()
	tc.send(MessageTypeJoinTable, JoinTableData{TableID: tableID, BuyIn: buyIn})
	var joined TableJoinedData
	decodeData(tc.t, tc.expect(MessageTypeTableJoined), &joined)
	tc.seat = joined.Seat
}

func createTable(tc *testClient, name string) string {
	tc.t.Helper()
	tc.send(MessageTypeCreateTable, room.CreateTableParams{
		Name:       name,
		SmallBlind: 5,
		BigBlind:   10,
		MinBuyIn:   100,
		MaxBuyIn:   2000,
	})
	var info table.Info
	decodeData(tc.t, tc.expect(MessageTypeTableCreated), &info)
	require.NotEmpty(tc.t, info.TableID)
	return info.TableID
}

func TestAuthAndTableLifecycle(t *testing.T) {
	_, url := testServer(t)
	tc := dial(t, url)

	// Name is mandatory.
	tc.send(MessageTypeAuth, AuthData{})
	var fail ErrorData
	decodeData(t, tc.expect(MessageTypeError), &fail)
	assert.Equal(t, "invalid_auth", fail.Code)

	tc.auth("alice")
	assert.True(t, strings.HasPrefix(tc.playerID, "plr_"), "player id %q", tc.playerID)

	tableID := createTable(tc, "main")
	assert.True(t, strings.HasPrefix(tableID, "tbl_"))

	tc.send(MessageTypeListTables, nil)
	var list TableListData
	decodeData(t, tc.expect(MessageTypeTableList), &list)
	require.Len(t, list.Tables, 1)
	assert.Equal(t, "main", list.Tables[0].Name)
	assert.Equal(t, 10, list.Tables[0].BigBlind)
}

func TestCommandsRequireAuth(t *testing.T) {
	_, url := testServer(t)
	tc := dial(t, url)

	tc.send(MessageTypeJoinTable, JoinTableData{TableID: "tbl_x", BuyIn: 500})
	var fail ErrorData
	decodeData(t, tc.expect(MessageTypeError), &fail)
	assert.Equal(t, "not_authenticated", fail.Code)

	tc.send(MessageTypeAct, ActData{TableID: "tbl_x", Action: "fold"})
	decodeData(t, tc.expect(MessageTypeError), &fail)
	assert.Equal(t, "not_authenticated", fail.Code)

	// Listing stays open to the unauthenticated.
	tc.send(MessageTypeListTables, nil)
	tc.expect(MessageTypeTableList)
}

func TestPlayAHandOverTheWire(t *testing.T) {
	_, url := testServer(t)

	alice := dial(t, url)
	alice.auth("alice")
	bob := dial(t, url)
	bob.auth("bob")

	tableID := createTable(alice, "main")
	alice.join(tableID, 1000)
	bob.join(tableID, 1000)

	alice.send(MessageTypeStartHand, StartHandData{TableID: tableID})
	var ack HandAckData
	decodeData(t, alice.expect(MessageTypeHandAck), &ack)
	assert.True(t, strings.HasPrefix(ack.HandID, "hnd_"))

	// Both players see the deal and their own cards, nobody else's.
	var started struct {
		HandID    string `json:"hand_id"`
		NextToAct int    `json:"next_to_act"`
		Seats     []struct {
			Seat     int    `json:"seat"`
			PlayerID string `json:"player_id"`
		} `json:"seats"`
	}
	decodeData(t, alice.expect(MessageType("hand_started")), &started)
	bob.expect(MessageType("hand_started"))
	require.Equal(t, ack.HandID, started.HandID)

	var aliceCards, bobCards HoleCardsData
	decodeData(t, alice.expect(MessageTypeHoleCards), &aliceCards)
	decodeData(t, bob.expect(MessageTypeHoleCards), &bobCards)
	require.Len(t, aliceCards.Cards, 2)
	require.Len(t, bobCards.Cards, 2)
	assert.Equal(t, alice.seat, aliceCards.Seat)
	assert.Equal(t, bob.seat, bobCards.Seat)
	assert.NotEqual(t, aliceCards.Cards, bobCards.Cards)

	// The player on the clock gets a prompt with the legal actions.
	actor, other := alice, bob
	if started.NextToAct == bob.seat {
		actor, other = bob, alice
	}
	var prompt ActionRequiredData
	decodeData(t, actor.expect(MessageTypeActionRequired), &prompt)
	assert.Equal(t, started.NextToAct, prompt.Seat)
	assert.NotEmpty(t, prompt.ValidActions)
	assert.Equal(t, 30, prompt.TimeoutSeconds)

	// Folding heads-up ends the hand for everyone.
	actor.send(MessageTypeAct, ActData{TableID: tableID, Action: "fold"})
	var state StateData
	decodeData(t, actor.expect(MessageTypeState), &state)
	assert.Equal(t, tableID, state.TableID)

	var ended struct {
		Showdown bool   `json:"showdown"`
		Summary  string `json:"summary"`
	}
	decodeData(t, other.expect(MessageType("hand_ended")), &ended)
	actor.expect(MessageType("hand_ended"))
	assert.False(t, ended.Showdown)
	assert.Contains(t, ended.Summary, "uncontested")
}

func TestSpectatorSeesNoHoleCards(t *testing.T) {
	_, url := testServer(t)

	alice := dial(t, url)
	alice.auth("alice")
	bob := dial(t, url)
	bob.auth("bob")
	watcher := dial(t, url)

	tableID := createTable(alice, "main")
	alice.join(tableID, 1000)
	bob.join(tableID, 1000)

	watcher.send(MessageTypeGetState, GetStateData{TableID: tableID})
	var state StateData
	decodeData(t, watcher.expect(MessageTypeState), &state)
	assert.Equal(t, -1, state.State.YourSeat)

	alice.send(MessageTypeStartHand, StartHandData{TableID: tableID})
	alice.expect(MessageTypeHandAck)

	// The watcher gets the broadcast...
	var started struct {
		NextToAct int `json:"next_to_act"`
	}
	decodeData(t, watcher.expect(MessageType("hand_started")), &started)

	// ...and after play continues, still no private frames have shown up.
	actor := alice
	if started.NextToAct == bob.seat {
		actor = bob
	}
	actor.expect(MessageTypeActionRequired)
	actor.send(MessageTypeAct, ActData{TableID: tableID, Action: "fold"})

	watcher.expect(MessageType("player_acted"))
	watcher.expect(MessageType("hand_ended"))
	assert.False(t, watcher.parked(MessageTypeHoleCards), "spectator received hole cards")
	assert.False(t, watcher.parked(MessageTypeActionRequired), "spectator received an action prompt")
}

func TestDisconnectLeavesTables(t *testing.T) {
	r, url := testServer(t)

	alice := dial(t, url)
	alice.auth("alice")
	bob := dial(t, url)
	bob.auth("bob")

	tableID := createTable(alice, "main")
	alice.join(tableID, 1000)
	bob.join(tableID, 1000)

	require.NoError(t, bob.conn.Close())

	require.Eventually(t, func() bool {
		view, err := r.View(tableID, "")
		return err == nil && len(view.Seats) == 1
	}, frameWait, 10*time.Millisecond, "disconnected player still seated")

	view, err := r.View(tableID, "")
	require.NoError(t, err)
	assert.Equal(t, alice.playerID, view.Seats[0].PlayerID)
}

func TestActErrorsCarryCodes(t *testing.T) {
	_, url := testServer(t)

	alice := dial(t, url)
	alice.auth("alice")
	bob := dial(t, url)
	bob.auth("bob")

	tableID := createTable(alice, "main")
	alice.join(tableID, 1000)
	bob.join(tableID, 1000)

	// Acting with no hand in progress.
	alice.send(MessageTypeAct, ActData{TableID: tableID, Action: "check"})
	var fail ErrorData
	decodeData(t, alice.expect(MessageTypeError), &fail)
	assert.Equal(t, "no_active_hand", fail.Code)

	// Unknown action names are rejected before reaching the table.
	alice.send(MessageTypeAct, ActData{TableID: tableID, Action: "jam"})
	decodeData(t, alice.expect(MessageTypeError), &fail)
	assert.Equal(t, "unknown_action", fail.Code)

	// Acting out of turn.
	alice.send(MessageTypeStartHand, StartHandData{TableID: tableID})
	var started struct {
		NextToAct int `json:"next_to_act"`
	}
	decodeData(t, alice.expect(MessageType("hand_started")), &started)

	waiter := alice
	if started.NextToAct == alice.seat {
		waiter = bob
	}
	waiter.send(MessageTypeAct, ActData{TableID: tableID, Action: "call"})
	decodeData(t, waiter.expect(MessageTypeError), &fail)
	assert.Equal(t, "out_of_turn", fail.Code)
}
