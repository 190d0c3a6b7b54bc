package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type rotatePasswordCmd struct{}

func (*rotatePasswordCmd) Name() string     { return "rotate-password" }
func (*rotatePasswordCmd) Synopsis() string { return "change the master password and rekey the vault" }
func (*rotatePasswordCmd) Usage() string {
	return `rotate-password

  Authenticates with the current password, then re-encrypts every stored
  blob under a key derived from the new password. The rotation happens in
  one transaction; an interrupted run leaves the vault on the old password.
`
}

func (*rotatePasswordCmd) SetFlags(*flag.FlagSet) {}

func (c *rotatePasswordCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	v, err := openVault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening vault: %v\n", err)
		return subcommands.ExitFailure
	}
	defer v.Close()

	session, err := v.login(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error authenticating: %v\n", err)
		return subcommands.ExitFailure
	}
	defer session.Close()

	newPassword, err := readNewPassword()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading new password: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := v.auth.ChangePassword(ctx, session, newPassword); err != nil {
		fmt.Fprintf(os.Stderr, "Error rotating password: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Println("Master password changed; all records re-encrypted")
	return subcommands.ExitSuccess
}
