package commands

import (
	"fmt"
	"io"

	crerr "github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/a-luna/vigorish-sub003/internal/domain/patch"
	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
	"github.com/a-luna/vigorish-sub003/internal/usecase"
)

func newPatchCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Inspect patch lists.",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <data-set> <url-id>",
			Short: "Show the patch list registered for one input.",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := s.App()
				if err != nil {
					return err
				}
				list, ok := a.Patches.Lookup(scrape.DataSet(args[0]), args[1])
				if !ok {
					return crerr.Wrapf(usecase.ErrNotFound, "no patch list for %s %s", args[0], args[1])
				}
				renderPatchList(cmd.OutOrStdout(), list)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List every registered patch list.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := s.App()
				if err != nil {
					return err
				}
				t := newTable(cmd.OutOrStdout())
				t.AppendHeader(table.Row{"Data set", "URL id", "Patches"})
				for _, k := range a.Patches.Keys() {
					list, _ := a.Patches.Lookup(k.DataSet, k.URLID)
					t.AppendRow(table.Row{k.DataSet, k.URLID, len(list.Patches)})
				}
				t.Render()
				return nil
			},
		},
	)
	return cmd
}

func renderPatchList(w io.Writer, list patch.List) {
	t := newTable(w)
	t.SetTitle(fmt.Sprintf("%s %s", list.DataSet, list.URLID))
	t.AppendHeader(table.Row{"#", "Kind", "Target", "Change"})
	for i, p := range list.Patches {
		var target, change string
		switch p.Kind {
		case patch.KindRenameGameID:
			target, change = p.OldGameID, p.NewGameID
		case patch.KindRemoveGame:
			target, change = p.GameID, "removed"
		case patch.KindOverridePitchSequence:
			target = fmt.Sprintf("%s row %d", p.InningKey, p.RowNumber)
			change = p.PitchSequence
		}
		t.AppendRow(table.Row{i + 1, p.Kind, target, change})
	}
	t.Render()
}
