package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rzbill/multipart/internal/manifest"
	"github.com/rzbill/multipart/internal/paging"
	"github.com/rzbill/multipart/internal/runtime"
	"github.com/rzbill/multipart/internal/source"
	"github.com/rzbill/multipart/pkg/keys"
	logpkg "github.com/rzbill/multipart/pkg/log"
)

func newWriteCommand(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write <file|->",
		Short: "Partition a file or stdin into page logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				if path == "-" {
					return fmt.Errorf("--name is required when reading stdin")
				}
				name = filepath.Base(path)
			}
			pageSize, err := sizeFlag(cmd, "page-size")
			if err != nil {
				return err
			}
			bufferSize, err := sizeFlag(cmd, "buffer-size")
			if err != nil {
				return err
			}
			master, err := masterKeyFlag(cmd, false)
			if err != nil {
				return err
			}
			namespace, _ := cmd.Flags().GetString("namespace")
			offset, _ := cmd.Flags().GetUint64("offset")
			resume, _ := cmd.Flags().GetBool("resume")
			verbose, _ := cmd.Flags().GetBool("verbose")
			out := cmd.OutOrStdout()

			return withRuntime(cmd, logger, func(rt *runtime.Runtime) error {
				if resume {
					if master == nil {
						return fmt.Errorf("--resume needs the original --master-key")
					}
					m, err := rt.LoadManifest(name)
					if err != nil {
						return err
					}
					if m.Complete {
						fmt.Fprintf(out, "%s is already complete\n", name)
						return nil
					}
					offset, pageSize, namespace = m.Offset, m.PageSize, m.Namespace
					if bufferSize == 0 {
						bufferSize = uint64(m.BufferSize)
					}
				}

				src, closeSrc, err := openSource(cmd, path, offset)
				if err != nil {
					return err
				}
				defer closeSrc()

				opts := runtime.WriteOptions{
					Name:       name,
					Source:     src,
					Namespace:  namespace,
					BufferSize: int(bufferSize),
					PageSize:   pageSize,
					Offset:     offset,
				}
				if master != nil {
					opts.MasterKey = master[:]
				}
				if verbose {
					opts.OnPage = func(page uint64, key keys.PublicKey) {
						fmt.Fprintf(out, "page %d\t%s\n", page, key)
					}
				}

				res, err := rt.Write(cmd.Context(), opts)
				if master == nil && res.MasterKey != (keys.MasterKey{}) {
					fmt.Fprintf(out, "master key: %s\n", res.MasterKey)
				}
				if err != nil {
					return fmt.Errorf("write %s stopped at offset %d: %w", name, res.Manifest.Offset, err)
				}
				printSummary(out, res.Manifest, res.Result)
				st := rt.StorageStats()
				fmt.Fprintf(out, "storage: %d commits, %s committed\n", st.Commits, humanize.IBytes(st.WrittenBytes))
				return nil
			})
		},
	}
	cmd.Flags().String("name", "", "Stream name (default: file base name)")
	cmd.Flags().String("page-size", "", "Page size, e.g. 10MiB (default from config)")
	cmd.Flags().String("buffer-size", "", "Read size, e.g. 4KiB (default from config)")
	cmd.Flags().String("master-key", "", "Hex master key (default: generate one)")
	cmd.Flags().String("namespace", "", "Key derivation namespace (default from config)")
	cmd.Flags().Uint64("offset", 0, "Start offset in bytes; earlier pages must already be recorded under --name")
	cmd.Flags().Bool("resume", false, "Continue from the manifest checkpoint")
	cmd.Flags().BoolP("verbose", "v", false, "Print each page address as it is created")
	return cmd
}

// openSource returns a paging source for path, positioned for offset.
func openSource(cmd *cobra.Command, path string, offset uint64) (paging.Source, func(), error) {
	if path == "-" {
		s := source.NewStream(cmd.InOrStdin(), 0)
		if offset > 0 {
			if err := s.Skip(offset); err != nil {
				return nil, nil, err
			}
		}
		return s, func() {}, nil
	}
	f, err := source.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func printSummary(w io.Writer, m manifest.Manifest, res paging.Result) {
	fmt.Fprintf(w, "wrote %s: %s in %d pages (%d blocks, page size %s)\n",
		m.Name, humanize.IBytes(m.Offset), m.Pages, res.Blocks, humanize.IBytes(m.PageSize))
}
