// file: cmd/muxmcp/auth.go
package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/muxmcp/internal/auth"
	"github.com/spf13/cobra"
)

func newAuthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored Mux credentials",
	}
	cmd.AddCommand(
		newAuthLoginCmd(a),
		newAuthLogoutCmd(a),
		newAuthStatusCmd(a),
		newAuthDiagnoseCmd(a),
	)
	return cmd
}

// authStores returns the keyring store plus the file store when one is configured.
// The keyring is always included so login works without extra configuration.
func (a *app) authStores() ([]auth.Store, error) {
	if a.deps.stores != nil {
		return a.deps.stores, nil
	}
	stores := []auth.Store{auth.NewKeyringStore(a.logger)}
	if a.cfg.Auth.CredentialsPath != "" {
		fs, err := auth.NewFileStore(a.cfg.Auth.CredentialsPath, a.logger)
		if err != nil {
			return nil, err
		}
		stores = append(stores, fs)
	}
	return stores, nil
}

func newAuthLoginCmd(a *app) *cobra.Command {
	var tokenID, tokenSecret string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save Mux credentials to the OS keyring",
		Long: `Save a Mux access token to the OS keyring (and the credentials file when
auth.credentials_path is set). Values not given as flags are read from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			var err error
			if tokenID == "" {
				if tokenID, err = prompt(in, out, "Mux token ID: "); err != nil {
					return err
				}
			}
			if tokenSecret == "" {
				if tokenSecret, err = prompt(in, out, "Mux token secret: "); err != nil {
					return err
				}
			}

			creds := auth.Credentials{TokenID: tokenID, TokenSecret: tokenSecret}
			if !creds.Complete() {
				return errors.Newf("missing %s", strings.Join(creds.Missing(), ", "))
			}

			stores, err := a.authStores()
			if err != nil {
				return err
			}
			for _, s := range stores {
				if err := s.Save(creds); err != nil {
					return errors.Wrapf(err, "saving to %s", s.Name())
				}
				fmt.Fprintf(out, "Saved credentials to %s.\n", s.Name())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tokenID, "token-id", "", "Mux access token ID")
	cmd.Flags().StringVar(&tokenSecret, "token-secret", "", "Mux access token secret")
	return cmd
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "reading input")
	}
	return strings.TrimSpace(line), nil
}

func newAuthLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored Mux credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stores, err := a.authStores()
			if err != nil {
				return err
			}
			var errs error
			for _, s := range stores {
				if err := s.Delete(); err != nil {
					errs = errors.CombineErrors(errs, errors.Wrapf(err, "removing from %s", s.Name()))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed credentials from %s.\n", s.Name())
			}
			return errs
		},
	}
}

func newAuthStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where Mux credentials would be loaded from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			stores, err := a.authStores()
			if err != nil {
				return err
			}
			creds, err := auth.NewResolver(a.cfg.Mux.TokenID, a.cfg.Mux.TokenSecret, a.logger, stores...).Resolve(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "Not authenticated: %s\n", describeError(err))
				return nil
			}
			fmt.Fprintf(out, "Authenticated via %s (token ID %s).\n", creds.Source, mask(creds.TokenID))
			return nil
		},
	}
}

func newAuthDiagnoseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Check that the OS keyring can store credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			store := auth.NewKeyringStore(a.logger)
			res := store.Diagnose()

			fmt.Fprintln(out, "=== Keyring Diagnostics ===")
			fmt.Fprintf(out, "%-18s: %s\n", "Service", res.Service)
			fmt.Fprintf(out, "%-18s: %s\n", "User", res.User)
			fmt.Fprintf(out, "%-18s: %s\n", "Set Operation", okOrError(res.SetErr))
			fmt.Fprintf(out, "%-18s: %s\n", "Get Operation", okOrError(res.GetErr))
			fmt.Fprintf(out, "%-18s: %t\n", "Get Value Match", res.ValueMatch)
			fmt.Fprintf(out, "%-18s: %s\n", "Delete Operation", okOrError(res.DeleteErr))

			if res.OK() {
				fmt.Fprintln(out, "\nKeyring is working.")
				return nil
			}
			fmt.Fprintln(out, "\n"+store.Advice())
			return errors.New("keyring diagnostics failed")
		},
	}
}

func okOrError(err error) string {
	if err == nil {
		return "ok"
	}
	return err.Error()
}

// mask keeps the first four characters of a secret-ish value.
func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}
