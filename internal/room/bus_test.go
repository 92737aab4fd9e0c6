package room

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/feltcraft/cardroom/internal/game"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	var got []string
	record := func(tag string) func(game.Event) {
		return func(ev game.Event) {
			got = append(got, fmt.Sprintf("%s:%s", tag, ev.Type()))
		}
	}
	cancelA := bus.Subscribe(record("a"))
	cancelB := bus.Subscribe(record("b"))

	bus.Publish(
		game.TableUpdated{Meta: game.NewMeta("t1", "")},
		game.HandStarted{Meta: game.NewMeta("t1", "h1")},
	)
	assert.Equal(t, []string{
		"a:table_updated", "b:table_updated",
		"a:hand_started", "b:hand_started",
	}, got)

	got = nil
	cancelA()
	bus.Publish(game.TableUpdated{Meta: game.NewMeta("t1", "")})
	assert.Equal(t, []string{"b:table_updated"}, got)

	got = nil
	cancelB()
	cancelB()
	bus.Publish(game.TableUpdated{Meta: game.NewMeta("t1", "")})
	assert.Empty(t, got)
}
