package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rzbill/multipart/internal/reader"
	"github.com/rzbill/multipart/pkg/keys"
)

func newKeysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Print derived page addresses",
		Long:  "Derives the public key of pages 1..N from a master key. No storage is touched.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			master, err := masterKeyFlag(cmd, false)
			if err != nil {
				return err
			}
			if master == nil {
				k, err := keys.GenerateMasterKey()
				if err != nil {
					return err
				}
				master = &k
				fmt.Fprintf(cmd.OutOrStdout(), "master key: %s\n", k)
			}
			pages, _ := cmd.Flags().GetUint64("pages")
			pageSize, err := sizeFlag(cmd, "page-size")
			if err != nil {
				return err
			}
			if pageSize == 0 {
				return fmt.Errorf("--page-size must be > 0")
			}
			namespace, _ := cmd.Flags().GetString("namespace")

			addrs := reader.Addresses(reader.Options{
				MasterKey: *master,
				Namespace: namespace,
				PageSize:  pageSize,
				Pages:     pages,
			})
			for i, a := range addrs {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i+1, a)
			}
			return nil
		},
	}
	cmd.Flags().String("master-key", "", "Hex master key (default: generate one)")
	cmd.Flags().Uint64("pages", 1, "Number of pages")
	cmd.Flags().String("page-size", "10MiB", "Page size")
	cmd.Flags().String("namespace", keys.DefaultNamespace, "Key derivation namespace")
	return cmd
}
