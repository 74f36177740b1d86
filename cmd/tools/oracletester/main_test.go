package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/vyne/backend/internal/oracle"
)

func TestToOutcome(t *testing.T) {
	ok := oracle.Ok(42)
	assert.Equal(t, outcome{Value: 42}, toOutcome(ok.Failed(), ok.Value(), ok))

	bad := oracle.Err[int](oracle.FailureParse, errors.New("no json"))
	got := toOutcome(bad.Failed(), bad.Value(), bad)
	assert.Equal(t, "parse", got.Failure)
	assert.Equal(t, "no json", got.Error)
	assert.Nil(t, got.Value)
}

func TestRankRejectsUnknownRequester(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"rank", "--requester", "ghost"})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
	assert.Empty(t, out.String())
}
