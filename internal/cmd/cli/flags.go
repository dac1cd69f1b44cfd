package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rzbill/multipart/pkg/keys"
)

// sizeFlag parses a humanized size flag such as "10MiB". Empty yields 0.
func sizeFlag(cmd *cobra.Command, name string) (uint64, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(v)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return n, nil
}

// masterKeyFlag reads --master-key, falling back to MULTIPART_MASTER_KEY.
func masterKeyFlag(cmd *cobra.Command, required bool) (*keys.MasterKey, error) {
	v, _ := cmd.Flags().GetString("master-key")
	if v == "" {
		v = os.Getenv("MULTIPART_MASTER_KEY")
	}
	if v == "" {
		if required {
			return nil, fmt.Errorf("--master-key is required")
		}
		return nil, nil
	}
	k, err := keys.ParseMasterKey(v)
	if err != nil {
		return nil, fmt.Errorf("invalid --master-key: %w", err)
	}
	return &k, nil
}
