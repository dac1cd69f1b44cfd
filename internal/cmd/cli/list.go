package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rzbill/multipart/internal/runtime"
	logpkg "github.com/rzbill/multipart/pkg/log"
)

func newListCommand(logger logpkg.Logger) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Short:   "List recorded streams",
		Aliases: []string{"list"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, logger, func(rt *runtime.Runtime) error {
				all, err := rt.Manifests()
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tSIZE\tPAGES\tPAGE SIZE\tSTATUS\tUPDATED")
				for _, m := range all {
					status := "complete"
					if !m.Complete {
						status = "partial@" + humanize.IBytes(m.Offset)
					}
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
						m.Name, humanize.IBytes(m.Offset), m.Pages, humanize.IBytes(m.PageSize), status,
						humanize.Time(time.UnixMilli(m.UpdatedAtMs)))
				}
				return tw.Flush()
			})
		},
	}
}

func newInspectCommand(logger logpkg.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <name>",
		Short: "Show a stream's manifest and the state of each page log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, logger, func(rt *runtime.Runtime) error {
				m, err := rt.LoadManifest(args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "name:       %s\n", m.Name)
				fmt.Fprintf(out, "namespace:  %s\n", m.Namespace)
				fmt.Fprintf(out, "page size:  %s\n", humanize.IBytes(m.PageSize))
				fmt.Fprintf(out, "written:    %s\n", humanize.IBytes(m.Offset))
				if m.SizeKnown {
					fmt.Fprintf(out, "size:       %s\n", humanize.IBytes(m.Size))
				}
				fmt.Fprintf(out, "complete:   %t\n", m.Complete)
				fmt.Fprintf(out, "session:    %s\n", m.SessionID)

				pubs, err := m.Keys()
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "PAGE\tKEY\tBLOCKS\tBYTES")
				for i, pub := range pubs {
					f, err := rt.Feeds().GetByKey(cmd.Context(), pub)
					if err != nil {
						return err
					}
					if err := f.Ready(cmd.Context()); err != nil {
						return err
					}
					fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i+1, pub.Short(), f.Len(), humanize.IBytes(f.ByteLength()))
				}
				return tw.Flush()
			})
		},
	}
}

func newRemoveCommand(logger logpkg.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Forget a stream's manifest (page logs stay addressable by key)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, logger, func(rt *runtime.Runtime) error {
				if err := rt.DeleteManifest(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return nil
			})
		},
	}
}
