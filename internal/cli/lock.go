package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/idilsaglam/journal/internal/model"
	"github.com/idilsaglam/journal/internal/vault"
)

var errPasswordMismatch = errors.New("passwords do not match")

func (a *app) passwordFlag(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&a.passwordStdin, "password-stdin", false, "read the password from the first line of stdin")
}

// readPassword prompts on the terminal with echo off. With --password-stdin,
// or when stdin is not a terminal, it reads one line instead.
func (a *app) readPassword(prompt string, confirm bool) (string, error) {
	if f, ok := a.in.(*os.File); ok && !a.passwordStdin && term.IsTerminal(int(f.Fd())) {
		pw, err := a.promptHidden(f, prompt)
		if err != nil {
			return "", err
		}
		if confirm {
			again, err := a.promptHidden(f, "Repeat password: ")
			if err != nil {
				return "", err
			}
			if again != pw {
				return "", errPasswordMismatch
			}
		}
		return pw, nil
	}
	pw, err := readLine(bufio.NewReader(a.in))
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if pw == "" {
		return "", usagef("empty password")
	}
	return pw, nil
}

func (a *app) promptHidden(f *os.File, prompt string) (string, error) {
	fmt.Fprint(a.errOut, prompt)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(a.errOut)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	pw := string(b)
	if pw == "" {
		return "", usagef("empty password")
	}
	return pw, nil
}

// readLine reads one line from r without the newline.
func readLine(r *bufio.Reader) (string, error) {
	s, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func (a *app) lockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock <ref>",
		Short: "Password-protect a log",
		Long: `Encrypts the description, body and history of a log with a password
(PBKDF2-SHA256 + AES-GCM). The name and tags stay visible in listings.
There is no way to recover a forgotten password.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := a.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if l.Locked {
				return usagef("%q is already locked", l.Name)
			}
			pw, err := a.readPassword("New password: ", true)
			if err != nil {
				return err
			}
			if err := vault.Seal(l, pw); err != nil {
				return err
			}
			if err := a.save(ctx, l); err != nil {
				return err
			}
			a.logger.Info("log locked", zap.String("id", l.ID))
			a.ok(fmt.Sprintf("locked %q", l.Name))
			return nil
		},
	}
	a.passwordFlag(cmd)
	return cmd
}

func (a *app) unlockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unlock <ref>",
		Short: "Remove the password from a log",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := a.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if !l.Locked {
				return usagef("%q is not locked", l.Name)
			}
			pw, err := a.readPassword("Password: ", false)
			if err != nil {
				return err
			}
			if err := vault.Open(l, pw); err != nil {
				return err
			}
			if err := a.save(ctx, l); err != nil {
				return err
			}
			a.logger.Info("log unlocked", zap.String("id", l.ID))
			a.ok(fmt.Sprintf("unlocked %q", l.Name))
			return nil
		},
	}
	a.passwordFlag(cmd)
	return cmd
}

// requireUnlocked is the common guard for commands that read content.
func requireUnlocked(logs ...*model.Log) error {
	for _, l := range logs {
		if l.Locked {
			return fmt.Errorf("%s: %w (run `journal unlock` first)", l.Name, model.ErrLocked)
		}
	}
	return nil
}
