package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/a-luna/vigorish-sub003/internal/domain/gameid"
)

func newGameIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gameid",
		Short: "Work with game identifiers.",
		// No config or services needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	}

	var away string
	convert := &cobra.Command{
		Use:   "convert <token>",
		Short: "Convert between bbref (TOR201905300) and brooks (gid_2019_05_30_oakmlb_tormlb_1) game ids.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := convertGameID(args[0], away)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	convert.Flags().StringVar(&away, "away", "", "away team bbref code, required for bbref ids")
	cmd.AddCommand(convert)
	return cmd
}

func convertGameID(token, away string) (string, error) {
	codes := gameid.DefaultTeamCodes()
	token = strings.TrimSpace(token)
	if strings.HasPrefix(token, "gid_") {
		return gameid.LongToCompact(token, codes)
	}
	return gameid.CompactToLong(token, strings.ToUpper(strings.TrimSpace(away)), codes)
}
