package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeliveryIsDeferredOneTick(t *testing.T) {
	b := NewBus()
	var got []UserMessage
	Subscribe(b, func(m UserMessage) { got = append(got, m) })

	Publish(b, UserMessage{Level: MessageInfo, Text: "hello"})
	b.DispatchAll()
	assert.Empty(t, got, "back buffer must not deliver this tick")

	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Text)

	// Already-delivered events do not replay on the next swap.
	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, got, 1)
}

func TestTypedRouting(t *testing.T) {
	b := NewBus()
	maps, msgs := 0, 0
	Subscribe(b, func(MapChanged) { maps++ })
	Subscribe(b, func(UserMessage) { msgs++ })

	Publish(b, MapChanged{MapKey: "town"})
	Publish(b, MapChanged{MapKey: "cave"})
	b.SwapBuffers()
	b.DispatchAll()

	assert.Equal(t, 2, maps)
	assert.Equal(t, 0, msgs)
}
