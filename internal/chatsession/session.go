// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package chatsession implements the spec-authoring chat session (spec
// §4.6): a conversation with a model adapter that drafts a thread's spec,
// persisted as a line-delimited journal.
package chatsession

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ralfcli/ralf/internal/ralferr"
)

// Role is who authored a chat message.
type Role string

const (
	RoleSystem    Role = "System"
	RoleUser      Role = "User"
	RoleAssistant Role = "Assistant"
)

// Message is one entry in a chat session's history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a spec-authoring conversation: its message history and the
// current working draft of the spec markdown.
type Session struct {
	ID       string
	Title    string
	Draft    string
	Messages []Message

	CreatedAt time.Time
	UpdatedAt time.Time
}

const systemPrompt = `You are the spec-authoring assistant for a software change. ` +
	`Your job is to help the operator converge on a complete markdown specification ` +
	`for the work to be done. When the draft is ready to hand off for implementation, ` +
	"end your response with the exact marker `<promise>COMPLETE</promise>`."

// BuildPrompt composes the full prompt sent to the model adapter: the
// fixed system prompt, the current draft fenced between "---" markers (if
// non-empty), the conversation so far, and a standing closing instruction.
func BuildPrompt(s *Session) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")

	if s.Draft != "" {
		fmt.Fprintf(&b, "Current draft:\n---\n%s\n---\n\n", s.Draft)
	}

	b.WriteString("Conversation:\n")
	for _, m := range s.Messages {
		switch m.Role {
		case RoleUser:
			fmt.Fprintf(&b, "User: %s\n", m.Content)
		case RoleAssistant:
			name := m.Model
			if name == "" {
				name = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n", name, m.Content)
		case RoleSystem:
			fmt.Fprintf(&b, "[System]: %s\n", m.Content)
		}
	}

	b.WriteString("\nRespond to the last user message and suggest draft updates if appropriate.\n")
	return b.String()
}

// DeliveryMode is how the prompt is handed to the adapter binary.
type DeliveryMode string

const (
	DeliveryStdin DeliveryMode = "stdin"
	DeliveryArgv  DeliveryMode = "argv"
)

// Invoke runs a single model adapter with the composed prompt for session
// s, honoring mode and timeout, and returns the adapter's response text.
// If stdout is empty, stderr is substituted as the response content.
func Invoke(ctx context.Context, argv []string, mode DeliveryMode, timeout time.Duration, s *Session) (string, error) {
	if len(argv) == 0 {
		return "", ralferr.New(ralferr.KindSpawn, "chatsession: no command_argv configured")
	}

	prompt := BuildPrompt(s)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	finalArgv := make([]string, len(argv))
	copy(finalArgv, argv)

	var stdinBuf *bytes.Buffer
	if mode == DeliveryArgv {
		finalArgv = append(finalArgv, prompt)
	} else {
		stdinBuf = bytes.NewBufferString(prompt)
	}

	cmd := exec.CommandContext(runCtx, finalArgv[0], finalArgv[1:]...)
	if stdinBuf != nil {
		cmd.Stdin = stdinBuf
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return "", ralferr.New(ralferr.KindTimeout, "chatsession: adapter invocation timed out")
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !isExitError(err, &exitErr) {
			return "", ralferr.Wrap(ralferr.KindSpawn, err)
		}
	}

	out := stdout.String()
	if strings.TrimSpace(out) == "" {
		out = stderr.String()
	}
	return out, nil
}

func isExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}

// TitleFromFirstUserMessage derives a session title from the first user
// message, truncated to 50 characters with an ellipsis appended if longer.
func TitleFromFirstUserMessage(s *Session) string {
	for _, m := range s.Messages {
		if m.Role != RoleUser {
			continue
		}
		runes := []rune(m.Content)
		if len(runes) <= 50 {
			return m.Content
		}
		return string(runes[:50]) + "…"
	}
	return ""
}
