// hashpw: users.json 保守用の CLI
//
//	hashpw hash --user admin --role admin   # パスワードは標準入力から
//	hashpw check '$2a$10$...' secret
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"MediaLoan-backend/internal/platform/auth"
)

func main() {
	root := &cobra.Command{
		Use:           "hashpw",
		Short:         "Manage bcrypt password hashes for users.json",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newHashCmd(), newCheckCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hashpw:", err)
		os.Exit(1)
	}
}

func newHashCmd() *cobra.Command {
	var (
		user string
		role string
		cost int
	)
	cmd := &cobra.Command{
		Use:   "hash [password]",
		Short: "Print a bcrypt hash, or a users.json entry with --user",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordArg(cmd.InOrStdin(), args, 0)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password, cost)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if user == "" {
				fmt.Fprintln(out, hash)
				return nil
			}
			buf, err := json.MarshalIndent(auth.Account{Username: user, PasswordHash: hash, Role: role}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(buf))
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "username for a users.json entry")
	cmd.Flags().StringVar(&role, "role", auth.DefaultRole, "role for --user")
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <hash> [password]",
		Short: "Verify a password against a bcrypt hash",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordArg(cmd.InOrStdin(), args, 1)
			if err != nil {
				return err
			}
			if !auth.CheckPassword(args[0], password) {
				return errors.New("mismatch")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

// passwordArg: args[i] が無ければ標準入力の1行目
func passwordArg(stdin io.Reader, args []string, i int) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", errors.New("empty password")
	}
	return line, nil
}
