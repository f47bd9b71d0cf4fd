package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fueltank/fueltank/internal/cli"
	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/model"
)

var flagNotifyUnread bool

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"alerts", "notes"},
	Short:   "List and manage notifications",
	RunE:    runNotificationsList,
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotificationsRead,
}

var notificationsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	RunE:  runNotificationsReadAll,
}

var notificationsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a notification",
	Args:    cobra.ExactArgs(1),
	RunE:    runNotificationsDelete,
}

func init() {
	notificationsCmd.Flags().BoolVarP(&flagNotifyUnread, "unread", "u", false, "Only unread notifications")
	notificationsCmd.AddCommand(notificationsReadCmd, notificationsReadAllCmd, notificationsDeleteCmd)
	rootCmd.AddCommand(notificationsCmd)
}

func runNotificationsList(cmd *cobra.Command, _ []string) error {
	return withEngine(cmd, func(eng *engine.Engine) error {
		notes := eng.Notifications()
		if flagNotifyUnread {
			unread := notes[:0]
			for _, n := range notes {
				if !n.IsRead {
					unread = append(unread, n)
				}
			}
			notes = unread
		}
		if flagJSON {
			return printJSON(notes)
		}
		if len(notes) == 0 {
			fmt.Println("  All quiet.")
			return nil
		}

		now := time.Now()
		fmt.Println()
		for _, n := range notes {
			marker := " "
			if !n.IsRead {
				marker = "●"
			}
			title := cli.PriorityStyle(n.Priority).Render(n.Title)
			fmt.Printf("  %s %s  %s  %s\n", marker, title,
				cli.Muted(cli.FormatAgo(n.CreatedAt, now)), cli.Muted(cli.ShortID(n.ID)))
			if n.Message != "" {
				fmt.Printf("      %s\n", n.Message)
			}
		}
		fmt.Println()
		return nil
	})
}

func runNotificationsRead(cmd *cobra.Command, args []string) error {
	return withEngine(cmd, func(eng *engine.Engine) error {
		id, err := resolveID(notificationIDs(eng.Notifications()), args[0])
		if err != nil {
			return err
		}
		eng.MarkAsRead(id)
		fmt.Printf("  Marked %s as read\n", cli.ShortID(id))
		return nil
	})
}

func runNotificationsReadAll(cmd *cobra.Command, _ []string) error {
	return withEngine(cmd, func(eng *engine.Engine) error {
		n := eng.MarkAllAsRead()
		fmt.Printf("  Marked %d notification(s) as read\n", n)
		return nil
	})
}

func runNotificationsDelete(cmd *cobra.Command, args []string) error {
	return withEngine(cmd, func(eng *engine.Engine) error {
		id, err := resolveID(notificationIDs(eng.Notifications()), args[0])
		if err != nil {
			return err
		}
		eng.DeleteNotification(id)
		fmt.Printf("  Deleted %s\n", cli.ShortID(id))
		return nil
	})
}

func notificationIDs(notes []model.Notification) []string {
	ids := make([]string, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	return ids
}
