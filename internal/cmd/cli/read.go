package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rzbill/multipart/internal/runtime"
	logpkg "github.com/rzbill/multipart/pkg/log"
)

func newReadCommand(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <name>",
		Short: "Reassemble a stream from its page logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			master, err := masterKeyFlag(cmd, true)
			if err != nil {
				return err
			}
			outPath, _ := cmd.Flags().GetString("out")

			return withRuntime(cmd, logger, func(rt *runtime.Runtime) error {
				var w io.Writer = cmd.OutOrStdout()
				if outPath != "-" {
					f, err := os.Create(outPath)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				n, err := rt.Read(cmd.Context(), args[0], *master, w)
				if err != nil {
					return err
				}
				if outPath != "-" {
					fmt.Fprintf(cmd.OutOrStdout(), "read %s: %s to %s\n", args[0], humanize.IBytes(uint64(n)), outPath)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("master-key", "", "Hex master key used to write the stream")
	cmd.Flags().StringP("out", "o", "-", "Output file (- for stdout)")
	return cmd
}
