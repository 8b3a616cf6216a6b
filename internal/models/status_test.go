package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{PostStatusDraft, PostStatusScheduled},
		{PostStatusDraft, PostStatusProcessing},
		{PostStatusScheduled, PostStatusDraft},
		{PostStatusScheduled, PostStatusProcessing},
		{PostStatusProcessing, PostStatusPublished},
		{PostStatusProcessing, PostStatusPartial},
		{PostStatusProcessing, PostStatusFailed},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s should be legal", tr[0], tr[1])
	}

	denied := [][2]string{
		{PostStatusPublished, PostStatusScheduled},
		{PostStatusPublished, PostStatusProcessing},
		{PostStatusPartial, PostStatusProcessing},
		{PostStatusFailed, PostStatusProcessing},
		{PostStatusDraft, PostStatusPublished},
		{PostStatusScheduled, PostStatusPublished},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s should be illegal", tr[0], tr[1])
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, IsTerminal(PostStatusPublished))
	assert.True(t, IsTerminal(PostStatusPartial))
	assert.True(t, IsTerminal(PostStatusFailed))

	assert.False(t, IsTerminal(PostStatusDraft))
	assert.False(t, IsTerminal(PostStatusScheduled))
	assert.False(t, IsTerminal(PostStatusProcessing))
}

func TestDispatchableStatuses(t *testing.T) {
	assert.True(t, IsDispatchable(PostStatusDraft))
	assert.True(t, IsDispatchable(PostStatusScheduled))

	assert.False(t, IsDispatchable(PostStatusProcessing))
	assert.False(t, IsDispatchable(PostStatusPublished))
	assert.False(t, IsDispatchable(PostStatusPartial))
	assert.False(t, IsDispatchable(PostStatusFailed))
}
