package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/triviastake/internal/fingerprint"
)

func newFingerprintCmd() *cobra.Command {
	var scheme string

	cmd := &cobra.Command{
		Use:   "fingerprint <question> <answer>",
		Short: "Compute the fingerprint of an answer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hasher, err := fingerprint.New(fingerprint.Scheme(scheme))
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(map[string]string{"fingerprint": hasher.Compute(args[0], args[1])})
			return nil
		},
	}

	cmd.Flags().StringVar(&scheme, "scheme", string(fingerprint.SchemeSHA256), "Fingerprint scheme: sha256, keccak256")

	return cmd
}
