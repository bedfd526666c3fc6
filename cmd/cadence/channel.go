// Notification channel commands: toggling channels and storing their
// destination values (email address, phone number, chat handle).
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "Manage notification channels",
}

var channelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notification channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		channels, err := channelSvc.GetAll(cmd.Context())
		if err != nil {
			return err
		}
		values, err := channelSvc.LoadValues(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tNAME\tENABLED\tVALUE")
		for _, c := range channels {
			enabled := "no"
			if c.IsEnabled {
				enabled = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Key, c.Name, enabled, values[c.Key])
		}
		return w.Flush()
	},
}

var channelEnableCmd = &cobra.Command{
	Use:   "enable <key>",
	Short: "Enable a notification channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := channelSvc.SetEnabled(cmd.Context(), args[0], true); err != nil {
			return err
		}
		fmt.Printf("Channel %s enabled\n", args[0])
		return nil
	},
}

var channelDisableCmd = &cobra.Command{
	Use:   "disable <key>",
	Short: "Disable a notification channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := channelSvc.SetEnabled(cmd.Context(), args[0], false); err != nil {
			return err
		}
		fmt.Printf("Channel %s disabled\n", args[0])
		return nil
	},
}

var channelSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a channel's destination value",
	Long: `Store the destination value for a channel, such as the email address
for email notifications. The value is validated against the channel's
format rules before it is saved.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := channelSvc.SaveValue(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Channel %s value saved\n", args[0])
		return nil
	},
}

var channelRemoveCmd = &cobra.Command{
	Use:   "rm <key>",
	Short: "Delete a notification channel",
	Long: `Delete a notification channel. Built-in channels and channels still
referenced by tasks are protected and cannot be removed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := channelSvc.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Channel %s deleted\n", args[0])
		return nil
	},
}

func init() {
	channelCmd.AddCommand(channelListCmd)
	channelCmd.AddCommand(channelEnableCmd)
	channelCmd.AddCommand(channelDisableCmd)
	channelCmd.AddCommand(channelSetCmd)
	channelCmd.AddCommand(channelRemoveCmd)
}
