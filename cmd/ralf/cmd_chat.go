// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ralfcli/ralf/internal/chatsession"
	"github.com/ralfcli/ralf/internal/config"
	"github.com/ralfcli/ralf/internal/threadmodel"
)

var chatModel string

// chatCmd runs the spec-authoring chat session (spec §4.6): the operator
// and a model adapter converge on a thread's spec markdown turn by turn,
// ending when the adapter's response carries the promise marker.
//
// # Examples
//
//	ralf chat                  # Use the first configured model
//	ralf chat --model claude    # Pick a specific adapter
//
// # Exit Codes
//
//	0 - A spec revision was finalized and the thread saved
//	1 - No models configured, or the operator aborted the session
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Draft a thread's spec in conversation with a model adapter",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatModel, "model", "", "Adapter name to converse with (default: first configured model)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	adapter, err := pickChatAdapter(cfg)
	if err != nil {
		return err
	}

	sess := &chatsession.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	journal := chatsession.New(baseDirFlag)
	store := openStore()
	ctx := context.Background()

	var secrets *config.SecretStore
	if len(cfg.Secrets) > 0 {
		secrets = config.NewSecretStore(cfg.Secrets)
	}

	printDim("drafting spec with %s — describe the task, end your turn with an empty line; type /done if the adapter never promises", adapter.Name)

	for {
		message, err := askMultilineText("Your message", "Describe the task, or respond to the adapter's last reply")
		if err != nil {
			return fmt.Errorf("chat input: %w", err)
		}
		if strings.TrimSpace(message) == "/done" {
			break
		}

		sess.Messages = append(sess.Messages, chatsession.Message{Role: chatsession.RoleUser, Content: message, Timestamp: time.Now().UTC()})
		if sess.Title == "" {
			sess.Title = chatsession.TitleFromFirstUserMessage(sess)
		}

		argv, destroySecrets, err := resolveArgv(secrets, adapter.CommandArgv)
		if err != nil {
			return fmt.Errorf("resolving secrets for %s: %w", adapter.Name, err)
		}
		mode := chatsession.DeliveryMode(deliveryModeName(adapter.Name))
		timeout := time.Duration(adapter.TimeoutSeconds) * time.Second
		response, err := chatsession.Invoke(ctx, argv, mode, timeout, sess)
		destroySecrets()
		if err != nil {
			return fmt.Errorf("invoking %s: %w", adapter.Name, err)
		}

		sess.Messages = append(sess.Messages, chatsession.Message{Role: chatsession.RoleAssistant, Content: response, Model: adapter.Name, Timestamp: time.Now().UTC()})
		if extracted := chatsession.ExtractSpecFromResponse(response); extracted != "" {
			sess.Draft = extracted
		}
		sess.UpdatedAt = time.Now().UTC()
		if err := journal.Save(sess); err != nil {
			printWarn("could not persist chat journal: %v", err)
		}

		fmt.Println(response)

		if chatsession.DraftHasPromise(response) {
			printOK("adapter signaled the draft is ready")
			break
		}
	}

	if strings.TrimSpace(sess.Draft) == "" {
		return fmt.Errorf("session ended with no draft spec to save")
	}

	thread := &threadmodel.Thread{
		ID:        sess.ID,
		Title:     sess.Title,
		CreatedAt: sess.CreatedAt,
		Mode:      threadmodel.ModeQuick,
		Phase:     threadmodel.DraftingPhase{},
	}
	if err := store.Save(thread); err != nil {
		return fmt.Errorf("saving thread: %w", err)
	}
	revision, err := store.SaveSpec(thread.ID, sess.Draft)
	if err != nil {
		return fmt.Errorf("saving spec: %w", err)
	}
	thread.CurrentSpecRevision = revision

	if err := threadmodel.Transition(thread, threadmodel.AssessingPhase{}); err != nil {
		return err
	}
	if err := threadmodel.Transition(thread, threadmodel.FinalizedPhase{}); err != nil {
		return err
	}
	if err := store.Save(thread); err != nil {
		return fmt.Errorf("saving thread: %w", err)
	}
	if err := store.SetActive(thread.ID); err != nil {
		return fmt.Errorf("setting active thread: %w", err)
	}

	printOK("thread %s finalized (spec revision %d)", thread.ID, revision)
	return nil
}

func pickChatAdapter(cfg *config.Config) (config.ModelConfig, error) {
	if len(cfg.Models) == 0 {
		return config.ModelConfig{}, fmt.Errorf("no models configured in %s", configPath())
	}
	if chatModel == "" {
		return cfg.Models[0], nil
	}
	for _, m := range cfg.Models {
		if m.Name == chatModel {
			return m, nil
		}
	}
	return config.ModelConfig{}, fmt.Errorf("model %q not found in %s", chatModel, configPath())
}

func askMultilineText(title, description string) (string, error) {
	var value string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(title).
				Description(description).
				Value(&value),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return value, nil
}
