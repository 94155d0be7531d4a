package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/gatekeeper/internal/security/password"
	"github.com/dropDatabas3/gatekeeper/internal/store/user"
)

func newUserCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Gestión de usuarios",
	}

	var email, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Crea un usuario activo (el password se lee de stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email = user.NormalizeEmail(email)
			if email == "" {
				return errors.New("--email is required")
			}
			plain, err := readPassword(cmd)
			if err != nil {
				return err
			}
			if ok, reasons := password.DefaultPolicy.Validate(plain); !ok {
				return fmt.Errorf("weak password: %s", strings.Join(reasons, ", "))
			}

			ctx := cmd.Context()
			ct, err := c.container(ctx)
			if err != nil {
				return err
			}
			defer ct.Close()
			if err := requireDB(ct); err != nil {
				return err
			}

			hash, err := password.NewHasher(ct.Config.Security.BcryptCost).Hash(plain)
			if err != nil {
				return err
			}
			u, err := ct.Users.Create(ctx, user.NewUser{
				Email:        email,
				PasswordHash: hash,
				Role:         role,
				Status:       user.StatusActive,
			})
			if err != nil {
				return err
			}
			cmd.Printf("user %d created (%s, role %s)\n", u.ID, u.Email, u.Role)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "email del usuario")
	create.Flags().StringVar(&role, "role", "user", "rol inicial")

	cmd.AddCommand(create)
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Imprime el hash bcrypt de un password leído de stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plain, err := readPassword(cmd)
			if err != nil {
				return err
			}
			hash, err := password.NewHasher(cost).Hash(plain)
			if err != nil {
				return err
			}
			cmd.Println(hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", password.DefaultCost, "costo bcrypt")
	return cmd
}

func readPassword(cmd *cobra.Command) (string, error) {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("password expected on stdin")
	}
	plain := strings.TrimRight(line, "\r\n")
	if plain == "" {
		return "", errors.New("empty password")
	}
	return plain, nil
}
