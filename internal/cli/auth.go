package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Login and identity commands",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthUseCmd())
	cmd.AddCommand(newAuthWhoamiCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Start an OAuth login and print the authorization URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LoginResult

			if err := client.Get("/api/v1/auth/login", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAuthUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <handle>",
		Short: "Remember the handle to act as",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.SaveHandle(args[0]); err != nil {
				return fmt.Errorf("failed to save handle: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Acting as %s", args[0]))
			return nil
		},
	}
}

func newAuthWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the current handle",
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := cfg.RequireHandle()
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(handle)
			return nil
		},
	}
}

func newWalletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Wallet commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "link <address>",
		Short: "Link a payout wallet to the current handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := cfg.RequireHandle()
			if err != nil {
				return err
			}

			req := map[string]string{"walletAddress": args[0]}
			var result WalletResult

			if err := client.Post(fmt.Sprintf("/api/v1/identities/%s/wallet", handle), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	})

	return cmd
}
