package dialpad

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(t *testing.T, p *Pad, keys string) State {
	t.Helper()
	var st State
	for _, k := range keys {
		var err error
		st, err = p.Press(string(k))
		require.NoError(t, err)
	}
	return st
}

func TestPressCapsAtMaxLength(t *testing.T) {
	p := New()
	st := press(t, p, "*1337#0099")
	assert.Equal(t, "*1337#00", st.Code)
	assert.True(t, st.CanSubmit)
}

func TestPressRejectsUnknownKeys(t *testing.T) {
	p := New()
	for _, k := range []string{"a", "", "12", " "} {
		_, err := p.Press(k)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", k)
	}
	assert.Empty(t, p.State().Code)
}

func TestDeleteAndClear(t *testing.T) {
	p := New()
	press(t, p, "123")
	assert.Equal(t, "12", p.Delete().Code)
	assert.Equal(t, "", p.Clear().Code)
	assert.Equal(t, "", p.Delete().Code)
}

func TestSubmitNeedsFourKeys(t *testing.T) {
	p := New()
	st := press(t, p, "*13")
	assert.False(t, st.CanSubmit)

	called := false
	_, err := p.Submit(func(string) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrTooShort)
	assert.False(t, called)
	assert.Equal(t, "*13", p.State().Code)
}

func TestSubmitRejectedSetsMessageAndClears(t *testing.T) {
	p := New()
	press(t, p, "0000")

	rejected := errors.New("no such room")
	st, err := p.Submit(func(code string) error {
		assert.Equal(t, "0000", code)
		return rejected
	})
	assert.ErrorIs(t, err, rejected)
	assert.Equal(t, RejectedMessage, st.Error)
	assert.Empty(t, st.Code)

	st = press(t, p, "1")
	assert.Empty(t, st.Error, "pressing a key clears the rejection")
}

func TestSubmitAcceptedClears(t *testing.T) {
	p := New()
	press(t, p, "*1337#")

	var got string
	st, err := p.Submit(func(code string) error { got = code; return nil })
	require.NoError(t, err)
	assert.Equal(t, "*1337#", got)
	assert.Equal(t, State{}, st)
}
