// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/toeirei/certmigrate/internal/i18n"
	"golang.org/x/term"
)

// readPassword reads a line from the terminal without echo.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

// readPassphrase resolves the passphrase from the flag, the
// CERTMIGRATE_PASSPHRASE environment variable or, on a terminal, a hidden
// prompt. An empty result means none was supplied.
func readPassphrase(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("CERTMIGRATE_PASSPHRASE"); env != "" {
		return env, nil
	}
	if !stdinIsTerminal() {
		return "", nil
	}
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), i18n.T("passphrase.prompt"))
	b, err := readPassword()
	_, _ = fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return string(b), nil
}

// promptForConfirmation displays a prompt and reads a line from the
// command's input.
func promptForConfirmation(cmd *cobra.Command, prompt string) string {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	answer, _ := reader.ReadString('\n')
	return strings.TrimSpace(strings.ToLower(answer))
}

func isYes(answer string) bool {
	return answer == "y" || answer == "yes" || answer == "j" || answer == "ja"
}
