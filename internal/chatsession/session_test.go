// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chatsession

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildPromptIncludesDraftAndConversation(t *testing.T) {
	s := &Session{
		Draft: "# Spec\n\nSome content",
		Messages: []Message{
			{Role: RoleUser, Content: "add a login page"},
			{Role: RoleAssistant, Content: "sure, here is a draft", Model: "claude"},
			{Role: RoleSystem, Content: "note: rate limited earlier"},
		},
	}
	prompt := BuildPrompt(s)

	require.Contains(t, prompt, "Current draft:\n---\n# Spec")
	require.Contains(t, prompt, "User: add a login page")
	require.Contains(t, prompt, "claude: sure, here is a draft")
	require.Contains(t, prompt, "[System]: note: rate limited earlier")
	require.Contains(t, prompt, "Respond to the last user message")
}

func TestBuildPromptOmitsDraftBlockWhenEmpty(t *testing.T) {
	s := &Session{Messages: []Message{{Role: RoleUser, Content: "hi"}}}
	prompt := BuildPrompt(s)
	require.NotContains(t, prompt, "Current draft:")
}

func TestInvokeUsesStdoutWhenPresent(t *testing.T) {
	out, err := Invoke(context.Background(), []string{"echo", "hello"}, DeliveryArgv, time.Second, &Session{})
	require.NoError(t, err)
	require.Contains(t, out, "hello")
}

func TestInvokeFallsBackToStderrWhenStdoutEmpty(t *testing.T) {
	out, err := Invoke(context.Background(), []string{"sh", "-c", "echo oops 1>&2"}, DeliveryStdin, time.Second, &Session{})
	require.NoError(t, err)
	require.Contains(t, out, "oops")
}

func TestInvokeTimesOut(t *testing.T) {
	_, err := Invoke(context.Background(), []string{"sh", "-c", "sleep 5"}, DeliveryStdin, 50*time.Millisecond, &Session{})
	require.Error(t, err)
}

func TestTitleFromFirstUserMessageTruncates(t *testing.T) {
	long := strings.Repeat("x", 60)
	s := &Session{Messages: []Message{{Role: RoleUser, Content: long}}}
	title := TitleFromFirstUserMessage(s)
	require.True(t, strings.HasSuffix(title, "…"))
	require.Equal(t, 51, len([]rune(title)))
}

func TestDraftHasPromiseAndExtract(t *testing.T) {
	require.True(t, DraftHasPromise("blah <promise>COMPLETE</promise> blah"))
	val, ok := ExtractDraftPromise("x <promise>COMPLETE</promise> y")
	require.True(t, ok)
	require.Equal(t, "COMPLETE", val)
}
