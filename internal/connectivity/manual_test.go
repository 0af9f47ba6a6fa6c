package connectivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManual_Connected(t *testing.T) {
	m := NewManual(true)
	assert.True(t, m.Connected())

	m.SetOnline(false)
	assert.False(t, m.Connected())
}

func TestManual_NotifiesOnTransition(t *testing.T) {
	m := NewManual(false)

	var got []bool
	cancel := m.Subscribe(func(online bool) { got = append(got, online) })
	defer cancel()

	m.SetOnline(true)
	m.SetOnline(false)

	assert.Equal(t, []bool{true, false}, got)
}

func TestManual_NoNotifyWithoutTransition(t *testing.T) {
	m := NewManual(true)

	calls := 0
	cancel := m.Subscribe(func(bool) { calls++ })
	defer cancel()

	m.SetOnline(true) // same state
	assert.Zero(t, calls)
}

func TestManual_CancelStopsNotifications(t *testing.T) {
	m := NewManual(false)

	calls := 0
	cancel := m.Subscribe(func(bool) { calls++ })
	cancel()
	cancel() // safe to call twice

	m.SetOnline(true)
	assert.Zero(t, calls)
}

func TestManual_MultipleSubscribers(t *testing.T) {
	m := NewManual(false)

	a, b := 0, 0
	cancelA := m.Subscribe(func(bool) { a++ })
	defer cancelA()
	cancelB := m.Subscribe(func(bool) { b++ })

	m.SetOnline(true)
	cancelB()
	m.SetOnline(false)

	assert.Equal(t, 2, a)
	assert.Equal(t, 1, b)
}
