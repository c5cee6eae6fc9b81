// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"fmt"
	"strings"

	"github.com/awnumar/memguard"
)

// secretRefPrefix opens the "${SECRET:name}" placeholder syntax adapters' argv may
// use to reference a value from the config's secrets map instead of
// embedding it in plaintext command_argv.
const secretRefPrefix = "${SECRET:"

// SecretStore holds adapter credentials (API keys, tokens) in
// memguard-locked memory for the process lifetime, following the
// teacher's secrets_manager pattern: never hold a secret as a plain Go
// string any longer than the moment it is substituted into an argv slice
// for exec.
type SecretStore struct {
	enclaves map[string]*memguard.Enclave
}

// NewSecretStore locks every value in secrets into its own enclave and
// discards the plaintext map.
func NewSecretStore(secrets map[string]string) *SecretStore {
	enclaves := make(map[string]*memguard.Enclave, len(secrets))
	for name, value := range secrets {
		buf := memguard.NewBufferFromBytes([]byte(value))
		enclaves[name] = buf.Seal()
	}
	return &SecretStore{enclaves: enclaves}
}

// ResolveArgv substitutes every "${SECRET:name}" placeholder in argv with
// its locked value, opening each enclave just long enough to build the
// final argument list. The returned destroy func wipes the decrypted
// buffers; callers must call it as soon as the subprocess has been
// started (exec.Cmd copies argv into the child's own address space at
// start, so the parent-side buffer need not outlive Start).
func (s *SecretStore) ResolveArgv(argv []string) (resolved []string, destroy func(), err error) {
	var opened []*memguard.LockedBuffer
	destroy = func() {
		for _, b := range opened {
			b.Destroy()
		}
	}

	resolved = make([]string, len(argv))
	for i, arg := range argv {
		if !strings.Contains(arg, secretRefPrefix) {
			resolved[i] = arg
			continue
		}
		name, ok := extractSecretName(arg)
		if !ok {
			resolved[i] = arg
			continue
		}
		enclave, ok := s.enclaves[name]
		if !ok {
			destroy()
			return nil, func() {}, fmt.Errorf("config: secret %q referenced but not configured", name)
		}
		buf, err := enclave.Open()
		if err != nil {
			destroy()
			return nil, func() {}, fmt.Errorf("config: opening secret %q: %w", name, err)
		}
		opened = append(opened, buf)
		resolved[i] = strings.Replace(arg, secretRefPrefix+name+"}", string(buf.Bytes()), 1)
	}
	return resolved, destroy, nil
}

func extractSecretName(arg string) (string, bool) {
	start := strings.Index(arg, secretRefPrefix)
	if start < 0 {
		return "", false
	}
	rest := arg[start+len(secretRefPrefix):]
	end := strings.Index(rest, "}")
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}
