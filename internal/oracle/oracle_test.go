package oracle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		text string
		open byte
		end  byte
		want string
	}{
		{"bare object", `{"safe":true}`, '{', '}', `{"safe":true}`},
		{"fenced", "```json\n{\"safe\": false}\n```", '{', '}', `{"safe": false}`},
		{"prose array", "Sure! [1, [2]] hope it helps", '[', ']', `[1, [2]]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.text, tc.open, tc.end)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	for _, text := range []string{"", "no json here", "} backwards {"} {
		_, err := ExtractJSON(text, '{', '}')
		assert.Error(t, err, "text %q", text)
	}
}

func TestResult(t *testing.T) {
	ok := Ok("value")
	assert.False(t, ok.Failed())
	assert.Equal(t, "value", ok.Value())
	assert.Equal(t, "value", ok.Or(func(FailureKind, error) string { return "fallback" }))

	cause := errors.New("timeout")
	bad := Err[string](FailureTransport, cause)
	assert.True(t, bad.Failed())
	kind, err := bad.Failure()
	assert.Equal(t, FailureTransport, kind)
	assert.ErrorIs(t, err, cause)

	var seen FailureKind
	assert.Equal(t, "fallback", bad.Or(func(k FailureKind, _ error) string { seen = k; return "fallback" }))
	assert.Equal(t, FailureTransport, seen)

	assert.True(t, Err[int](FailureParse, nil).Failed())
}
