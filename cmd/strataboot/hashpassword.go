// cmd/strataboot/hashpassword.go
package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/strataboot/internal/app/system/authutil"
	"github.com/spf13/cobra"
)

func newHashPasswordCmd() *cobra.Command {
	var (
		password string
		cost     int
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for use as a password_hash seed attribute",
		Long: `Print a bcrypt hash for use as a password_hash seed attribute.

The password is read from --password or, when that is empty, from the
first line of standard input:
  echo 'correct-horse' | strataboot hash-password`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no password given on --password or stdin")
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if !force {
				if err := authutil.ValidatePassword(password); err != nil {
					return fmt.Errorf("%w (use --force to hash it anyway)", err)
				}
			}
			hash, err := authutil.HashPassword(password, cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password to hash (default: read stdin)")
	cmd.Flags().IntVar(&cost, "cost", authutil.DefaultCost, "bcrypt cost")
	cmd.Flags().BoolVar(&force, "force", false, "skip the password strength check")
	return cmd
}
