package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/ray-remotestate/restro/admin"
	"github.com/ray-remotestate/restro/client"
)

func newPingCmd(a *app) *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Discover the backend and check that it answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return watchBackend(cmd, a, interval)
			}
			ep, err := a.client.Ping(cmd.Context())
			if err != nil {
				return errors.Annotatef(err, "backend at %s not reachable", ep.URL)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "connected to %s (%s)\n", ep.URL, ep.Source)
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep checking and report connection changes; press enter to retry now")
	cmd.Flags().DurationVar(&interval, "interval", client.DefaultCheckInterval, "time between checks in watch mode")
	return cmd
}

// watchBackend runs the connection monitor until interrupted. Each line read
// from stdin forces rediscovery and an immediate check.
func watchBackend(cmd *cobra.Command, a *app, interval time.Duration) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var mu sync.Mutex
	monitor := client.NewMonitor(a.client, nil,
		client.WithInterval(interval),
		client.WithNotify(func(connected bool, ep client.Endpoint, err error) {
			mu.Lock()
			defer mu.Unlock()
			stamp := time.Now().Format(time.TimeOnly)
			if connected {
				fmt.Fprintf(out, "%s connected to %s (%s)\n", stamp, ep.URL, ep.Source)
				return
			}
			fmt.Fprintf(out, "%s disconnected from %s: %v\n", stamp, ep.URL, err)
		}),
	)

	retry := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case retry <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()
	go monitor.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-retry:
			if !monitor.Retry(ctx) {
				mu.Lock()
				fmt.Fprintln(out, "still disconnected")
				mu.Unlock()
			}
		}
	}
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange admin credentials for a bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), payload.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}

func newOrdersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List, inspect and update orders",
	}
	cmd.AddCommand(
		newOrdersListCmd(a),
		newOrdersExportCmd(a),
		newOrdersShowCmd(a),
		newOrdersSetStatusCmd(a),
		newOrdersCancelCmd(a),
		newOrdersBulkStatusCmd(a),
	)
	return cmd
}

type listFlags struct {
	status string
	page   int
	limit  int
	search string
	date   string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.status, "status", "ALL", "status filter applied by the server")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.limit, "limit", 20, "orders per page")
	cmd.Flags().StringVar(&f.search, "search", "", "narrow the page by order id, customer or restaurant")
	cmd.Flags().StringVar(&f.date, "date", "all", "narrow the page by date: all, today, week, month")
}

func (f *listFlags) load(cmd *cobra.Command, a *app) (*admin.OrderList, error) {
	dateFilter, err := admin.ParseDateFilter(f.date)
	if err != nil {
		return nil, err
	}
	list := admin.NewOrderList(a.client, nil)
	list.StatusFilter = strings.ToUpper(f.status)
	list.Page = f.page
	list.Limit = f.limit
	list.SearchQuery = f.search
	list.DateFilter = dateFilter
	if err := list.Load(cmd.Context()); err != nil {
		return nil, err
	}
	return list, nil
}

func newOrdersListCmd(a *app) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show one page of orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := f.load(cmd, a)
			if err != nil {
				return err
			}
			printOrders(cmd.OutOrStdout(), list)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func printOrders(out io.Writer, list *admin.OrderList) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tORDER\tCUSTOMER\tRESTAURANT\tSTATUS\tAMOUNT\tCREATED")
	for _, o := range list.Rows() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			o.ID, o.OrderID, o.User.Name, o.Restaurant.Name, o.OrderStatus, o.OrderAmount, o.CreatedAt)
	}
	tw.Flush()
	fmt.Fprintf(out, "page %d, %d orders in total\n", list.Page, list.Total())
}

func newOrdersExportCmd(a *app) *cobra.Command {
	var (
		f      listFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current page as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := f.load(cmd, a)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				out = file
			}
			return list.ExportCSV(out)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "-", "file to write, - for stdout")
	return cmd
}

func newOrdersShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one order with its items and the actions available",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail := admin.NewOrderDetail(a.client, args[0], admin.WithTransitions(a.policy))
			if err := detail.Load(cmd.Context()); err != nil {
				return err
			}
			printDetail(cmd.OutOrStdout(), detail)
			return nil
		},
	}
}

func printDetail(out io.Writer, d *admin.OrderDetail) {
	if d.NotFound() {
		fmt.Fprintln(out, "order not found")
		return
	}
	o := d.Order()
	fmt.Fprintf(out, "Order %s (%s)\n", o.OrderID, o.ID)
	fmt.Fprintf(out, "Status:     %s\n", o.OrderStatus)
	fmt.Fprintf(out, "Customer:   %s <%s>\n", o.User.Name, o.User.Email)
	fmt.Fprintf(out, "Restaurant: %s\n", o.Restaurant.Name)
	fmt.Fprintf(out, "Address:    %s\n", o.DeliveryAddress.Address)
	fmt.Fprintf(out, "Payment:    %s, paid %.2f of %.2f\n", o.PaymentMethod, o.PaidAmount, o.OrderAmount)
	fmt.Fprintf(out, "Created:    %s\n", o.CreatedAt)
	if o.CompletedAt != nil {
		fmt.Fprintf(out, "Completed:  %s\n", *o.CompletedAt)
	}
	if o.Reason != nil {
		fmt.Fprintf(out, "Reason:     %s\n", *o.Reason)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nITEM\tQTY\tPRICE\tTOTAL")
	for _, item := range o.Items {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%s\n", item.Title, item.Quantity, item.Price, admin.LineTotal(item).StringFixed(2))
	}
	fmt.Fprintf(tw, "\t\t\t%s\n", d.ItemsTotal().StringFixed(2))
	tw.Flush()

	var actions []string
	for _, act := range d.Actions() {
		if act.Kind == admin.ActionCancel {
			actions = append(actions, "cancel")
			continue
		}
		actions = append(actions, string(act.Status))
	}
	if len(actions) > 0 {
		fmt.Fprintf(out, "\nActions: %s\n", strings.Join(actions, ", "))
	}
}

func newOrdersSetStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status ID STATUS",
		Short: "Move an order to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail := admin.NewOrderDetail(a.client, args[0], admin.WithTransitions(a.policy))
			if err := detail.SetStatus(cmd.Context(), args[1]); err != nil {
				return err
			}
			printDetail(cmd.OutOrStdout(), detail)
			return nil
		},
	}
}

func newOrdersCancelCmd(a *app) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel an order with a reason",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail := admin.NewOrderDetail(a.client, args[0], admin.WithTransitions(a.policy))
			if err := detail.Cancel(cmd.Context(), reason); err != nil {
				return err
			}
			printDetail(cmd.OutOrStdout(), detail)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "why the order is cancelled (required)")
	return cmd
}

func newOrdersBulkStatusCmd(a *app) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "bulk-status STATUS ID...",
		Short: "Move several orders to one status",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := f.load(cmd, a)
			if err != nil {
				return err
			}
			bulkErr := list.BulkUpdate(cmd.Context(), args[1:], args[0])
			printOrders(cmd.OutOrStdout(), list)
			return bulkErr
		},
	}
	f.register(cmd)
	return cmd
}
