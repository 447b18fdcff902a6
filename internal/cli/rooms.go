package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List active rooms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rooms, err := NewAPI(serverURL, token).Rooms(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), RoomsTable(rooms))
		return nil
	},
}

var roomCmd = &cobra.Command{
	Use:   "room <roomId>",
	Short: "Show the participants of one room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := NewAPI(serverURL, token).Room(cmd.Context(), args[0])
		if errors.Is(err, ErrRoomNotFound) {
			return fmt.Errorf("room %q does not exist", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), RoomTable(d))
		return nil
	},
}
