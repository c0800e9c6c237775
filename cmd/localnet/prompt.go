package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/altuslabsxyz/localnet/internal/testnet"
)

// errCancelled is returned when the user interrupts a prompt.
var errCancelled = errors.New("cancelled by user")

// isInteractive reports whether stdin is a terminal.
var isInteractive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm asks a yes/no question; the default answer is no.
var confirm = func(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	_, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrAbort {
			return false, nil
		}
		if err == promptui.ErrInterrupt || err == promptui.ErrEOF {
			return false, errCancelled
		}
		return false, err
	}
	return true, nil
}

// confirmOverwrite decides whether a previous testnet in layout may be
// wiped. proceed is false when the user declined. Without a terminal no
// question is asked and the bootstrap itself refuses the non-empty home.
func confirmOverwrite(layout testnet.Layout) (proceed, overwrite bool, err error) {
	hasState, err := layout.HasState()
	if err != nil {
		return false, false, err
	}
	if !hasState || !isInteractive() {
		return true, false, nil
	}

	ok, err := confirm(fmt.Sprintf("%s holds a previous testnet. Wipe %s/ and %s/",
		layout.Home, testnet.WalletDir, testnet.NodesDir))
	if err != nil {
		return false, false, err
	}
	return ok, ok, nil
}
