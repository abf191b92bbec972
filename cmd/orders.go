// ABOUTME: Ride order commands for ridectl
// ABOUTME: Lists, creates, cancels and completes orders with role-based access

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/markalston/ridectl/internal/models"
	"github.com/markalston/ridectl/internal/tui/styles"
)

var newOrder models.OrderRequest

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Work with ride orders",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List orders visible to the signed-in account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitErr(runOrdersList(cmd.Context(), cmd.OutOrStdout()))
	},
}

var ordersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Request a ride",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitErr(runOrdersCreate(cmd.Context(), cmd.OutOrStdout()))
	},
}

var ordersCancelCmd = &cobra.Command{
	Use:   "cancel ORDER_ID",
	Short: "Cancel a ride request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitErr(runOrderAction(cmd.Context(), cmd.OutOrStdout(), "cancel", args[0]))
	},
}

var ordersCompleteCmd = &cobra.Command{
	Use:   "complete ORDER_ID",
	Short: "Mark a ride as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitErr(runOrderAction(cmd.Context(), cmd.OutOrStdout(), "complete", args[0]))
	},
}

func init() {
	ordersCreateCmd.Flags().StringVar(&newOrder.Pickup, "pickup", "", "Pickup address")
	ordersCreateCmd.Flags().StringVar(&newOrder.Destination, "destination", "", "Destination address")
	ordersCreateCmd.Flags().Float64Var(&newOrder.Price, "price", 0, "Offered price (backend quotes when omitted)")

	requireAuth(ordersListCmd)
	requireAuth(ordersCreateCmd, models.RoleRider)
	requireAuth(ordersCancelCmd, models.RoleRider, models.RoleAdmin)
	requireAuth(ordersCompleteCmd, models.RoleDriver)

	ordersCmd.AddCommand(ordersListCmd, ordersCreateCmd, ordersCancelCmd, ordersCompleteCmd)
	rootCmd.AddCommand(ordersCmd)
}

// runOrdersList prints orders and returns exit code
func runOrdersList(ctx context.Context, w io.Writer) int {
	e, err := openEnv(ctx, "/orders/list", w)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	defer e.Close()

	orders, err := e.client.ListOrders(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitAPIError
	}

	if IsJSONOutput() {
		if orders == nil {
			orders = []models.Order{}
		}
		printJSON(w, orders)
		return exitOK
	}
	fmt.Fprintln(w, formatOrdersHuman(orders))
	return exitOK
}

// runOrdersCreate requests a ride and returns exit code
func runOrdersCreate(ctx context.Context, w io.Writer) int {
	newOrder.Pickup = strings.TrimSpace(newOrder.Pickup)
	newOrder.Destination = strings.TrimSpace(newOrder.Destination)
	if newOrder.Pickup == "" || newOrder.Destination == "" {
		fmt.Fprintln(w, "Error: --pickup and --destination are required")
		return exitUsage
	}
	if newOrder.Price < 0 {
		fmt.Fprintln(w, "Error: --price must not be negative")
		return exitUsage
	}

	e, err := openEnv(ctx, "/orders/create", w)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	defer e.Close()

	order, err := e.client.CreateOrder(ctx, &newOrder)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitAPIError
	}
	return printOrder(w, order)
}

// runOrderAction applies cancel or complete and returns exit code
func runOrderAction(ctx context.Context, w io.Writer, action, id string) int {
	e, err := openEnv(ctx, "/orders/"+action, w)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	defer e.Close()

	var order *models.Order
	switch action {
	case "cancel":
		order, err = e.client.CancelOrder(ctx, id)
	case "complete":
		order, err = e.client.CompleteOrder(ctx, id)
	default:
		fmt.Fprintf(w, "Error: unknown order action %q\n", action)
		return exitUsage
	}
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitAPIError
	}
	return printOrder(w, order)
}

func printOrder(w io.Writer, order *models.Order) int {
	if IsJSONOutput() {
		printJSON(w, order)
		return exitOK
	}
	fmt.Fprintln(w, formatOrdersHuman([]models.Order{*order}))
	return exitOK
}

// formatOrdersHuman formats orders as a bordered table
func formatOrdersHuman(orders []models.Order) string {
	if len(orders) == 0 {
		return "No orders."
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STATUS", "PICKUP", "DESTINATION", "PRICE").
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Inherit(styles.KeyStyle)
			}
			if col == 4 {
				return style.Align(lipgloss.Right)
			}
			return style
		})
	for _, o := range orders {
		t.Row(o.ID, styles.OrderStatus(o.Status), o.Pickup, o.Destination, fmt.Sprintf("%.2f", o.Price))
	}
	return t.String()
}
