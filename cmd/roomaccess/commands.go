package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/room-access/internal/application"
	"github.com/example/room-access/internal/persistence"
	"github.com/example/room-access/internal/seed"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, backend, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", backend)
			return nil
		},
	}
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load marketplace fixtures from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := seed.ParseFile(args[0])
			if err != nil {
				return err
			}

			store, _, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := seed.NewLoader(store).Load(cmd.Context(), fixture)
			if err != nil {
				return fmt.Errorf("seed %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "seeded %d users, %d rooms, %d bookings\n", len(res.Users), len(res.Rooms), len(res.Bookings))
			for _, key := range slices.Sorted(maps.Keys(res.Rooms)) {
				fmt.Fprintf(out, "room %s\t%s\n", key, res.Rooms[key].PublicUUID)
			}
			return nil
		},
	}
}

func newCheckCommand(opts *rootOptions) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "check <room-uuid>",
		Short: "Print the access decision for a user and room",
		Long:  "Evaluates the access rules for --user against the room and prints the decision JSON. Omit --user to check as an anonymous caller.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			principal := application.Anonymous
			if userID > 0 {
				user, err := store.GetUser(cmd.Context(), userID)
				if err != nil {
					if errors.Is(err, persistence.ErrNotFound) {
						return fmt.Errorf("user %d does not exist", userID)
					}
					return err
				}
				principal = application.PrincipalFor(user)
			}

			decision, err := application.NewAccessService(store).CheckAccess(cmd.Context(), args[0], principal)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(decision)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "id of the user requesting access")
	return cmd
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print an argon2id hash suitable for users.password_hash",
		Long:  "Hashes the password argument, or the first line of stdin when no argument is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if scanner.Scan() {
					password = strings.TrimRight(scanner.Text(), "\r")
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}

			hash, err := application.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
