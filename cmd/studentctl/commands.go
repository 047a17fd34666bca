package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/student-register/internal/client"
	"github.com/aanand-mishra/student-register/internal/http/handlers/student"
	"github.com/aanand-mishra/student-register/internal/validate"
)

const (
	defaultAddr    = "http://localhost:8082"
	addrEnv        = "STUDENTCTL_ADDR"
	requestTimeout = 10 * time.Second
)

type rootOptions struct {
	addr string
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.addr)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	addr := os.Getenv(addrEnv)
	if addr == "" {
		addr = defaultAddr
	}

	cmd := &cobra.Command{
		Use:           "studentctl",
		Short:         "Manage the student register from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.addr, "addr", addr, "server base URL (env "+addrEnv+")")

	cmd.AddCommand(
		newListCmd(opts),
		newAddCmd(opts),
		newEditCmd(opts),
		newDeleteCmd(opts),
		newStateCmd(opts),
		newReloadCmd(opts),
	)
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all students",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := timeout(cmd)
			defer cancel()

			items, err := opts.client().List(ctx)
			if err != nil {
				return err
			}
			return printItems(cmd.OutOrStdout(), items)
		},
	}
}

// formFlags binds the four student fields to flags on cmd.
func formFlags(cmd *cobra.Command, in *validate.Input) {
	cmd.Flags().StringVar(&in.Name, "name", "", "student name")
	cmd.Flags().StringVar(&in.StudentID, "student-id", "", "student ID")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Contact, "contact", "", "contact number")
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var in validate.Input
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := timeout(cmd)
			defer cancel()

			item, _, err := opts.client().Submit(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d %s\n", item.Index, item.ID)
			return nil
		},
	}
	formFlags(cmd, &in)
	return cmd
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var in validate.Input
	cmd := &cobra.Command{
		Use:   "edit INDEX",
		Short: "Edit the student at INDEX; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := timeout(cmd)
			defer cancel()

			c := opts.client()
			current, err := c.Edit(ctx, index)
			if err != nil {
				return err
			}

			merged := validate.FromStudent(current.Student)
			flags := cmd.Flags()
			if flags.Changed("name") {
				merged.Name = in.Name
			}
			if flags.Changed("student-id") {
				merged.StudentID = in.StudentID
			}
			if flags.Changed("email") {
				merged.Email = in.Email
			}
			if flags.Changed("contact") {
				merged.Contact = in.Contact
			}

			item, _, err := c.Submit(ctx, merged)
			if err != nil {
				// Leave the server out of edit mode.
				_ = c.Cancel(ctx)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d %s\n", item.Index, item.ID)
			return nil
		},
	}
	formFlags(cmd, &in)
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete INDEX",
		Short: "Delete the student at INDEX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := timeout(cmd)
			defer cancel()

			del, err := opts.client().Delete(ctx, index)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d %s\n", del.Index, del.ID)
			return nil
		},
	}
}

func newStateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the editor state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := timeout(cmd)
			defer cancel()

			st, err := opts.client().State(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if st.Mode == "editing" {
				fmt.Fprintf(out, "editing %d\n", st.Index)
			} else {
				fmt.Fprintln(out, "creating")
			}
			if st.Error != "" {
				fmt.Fprintf(out, "error: %s\n", st.Error)
			}
			return nil
		},
	}
}

func newReloadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Make the server re-read its saved records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := timeout(cmd)
			defer cancel()

			res, err := opts.client().Reload(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d, skipped %d\n", res.Count, res.Dropped)
			return nil
		},
	}
}

func printItems(w io.Writer, items []student.Item) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "no students")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tSTUDENT ID\tEMAIL\tCONTACT")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", it.Index, it.Name, it.StudentID, it.Email, it.Contact)
	}
	return tw.Flush()
}

func timeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), requestTimeout)
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: must be an integer", s)
	}
	return i, nil
}
