// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chatsession

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJournalSaveLoadRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	sess := &Session{
		ID:        "sess1",
		Title:     "add login page",
		Draft:     "# Spec",
		CreatedAt: time.Now().Truncate(time.Second),
		UpdatedAt: time.Now().Truncate(time.Second),
		Messages: []Message{
			{Role: RoleUser, Content: "add a login page", Timestamp: time.Now().Truncate(time.Second)},
		},
	}
	require.NoError(t, store.Save(sess))

	loaded, err := store.Load("sess1")
	require.NoError(t, err)
	require.Equal(t, sess.Title, loaded.Title)
	require.Equal(t, sess.Draft, loaded.Draft)
	require.Len(t, loaded.Messages, 1)
	require.Equal(t, "add a login page", loaded.Messages[0].Content)
}

func TestJournalAppendAddsMessage(t *testing.T) {
	store := New(t.TempDir())
	sess := &Session{ID: "sess2", Title: "t"}
	require.NoError(t, store.Save(sess))
	require.NoError(t, store.Append("sess2", Message{Role: RoleAssistant, Content: "ok", Model: "claude"}))

	loaded, err := store.Load("sess2")
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 1)
	require.Equal(t, "ok", loaded.Messages[0].Content)
}

func TestJournalLoadReportsEmptyThread(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Save(&Session{ID: "blank"}))

	// Truncate the journal file to zero lines to simulate an empty thread.
	path := store.path("blank")
	require.NoError(t, os.Truncate(path, 0))

	_, err := store.Load("blank")
	require.ErrorIs(t, err, ErrEmptyThread)
}
