package main

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/redoz/domus/pkg/crypto/srp"
)

// promptSetupCode reads a setup code from the terminal until a valid one is
// entered.
func promptSetupCode() (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "setup code> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return "", fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			return "", fmt.Errorf("setup code: %w", err)
		}
		code, err := srp.FormatSetupCode(strings.TrimSpace(line))
		if err != nil {
			fmt.Fprintln(rl.Stderr(), "enter the 8 digits printed on the accessory, e.g. 111-22-333")
			continue
		}
		return code, nil
	}
}
