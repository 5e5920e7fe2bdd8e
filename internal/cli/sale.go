package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/gpos/internal/export"
	"github.com/roach88/gpos/internal/model"
	"github.com/roach88/gpos/internal/pos"
)

// SaleOptions holds flags for sale subcommands.
type SaleOptions struct {
	*RootOptions

	Items    []string
	Payment  string
	Customer string
	Notes    string
	Paid     string

	From string
	To   string
}

// NewSaleCommand creates the sale command group.
func NewSaleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sale",
		Short: "Record and inspect sales",
	}
	cmd.AddCommand(newSaleCreateCommand(&SaleOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newSaleListCommand(&SaleOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newSaleShowCommand(rootOpts))
	return cmd
}

func newSaleCreateCommand(opts *SaleOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a completed sale",
		Long: `Record a sale and decrement stock.

Each --item is PRODUCT_ID:QUANTITY (quantity defaults to 1). Repeated
products are merged. The sale is rejected when a product is unknown or
inactive, when stock is insufficient, or when --paid is below the total.

Examples:
  gpos sale create --item 1:2
  gpos sale create --item 1 --item 5:3 --payment Card --customer Dana
  gpos sale create --item 2:1 --paid 10.00 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSaleCreate(opts, cmd)
		},
	}
	cmd.Flags().StringArrayVarP(&opts.Items, "item", "i", nil, "PRODUCT_ID[:QUANTITY], repeatable")
	cmd.Flags().StringVar(&opts.Payment, "payment", model.DefaultPaymentMethod, "payment method")
	cmd.Flags().StringVar(&opts.Customer, "customer", "", "customer name")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&opts.Paid, "paid", "", "amount tendered (default: exact total)")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func runSaleCreate(opts *SaleOptions, cmd *cobra.Command) (err error) {
	out := newFormatter(opts.RootOptions, cmd)

	req := pos.SaleRequest{
		PaymentMethod: opts.Payment,
		CustomerName:  opts.Customer,
		Notes:         opts.Notes,
	}
	for _, arg := range opts.Items {
		line, err := parseSaleLine(arg)
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid --item", err)
		}
		req.Items = append(req.Items, line)
	}
	if opts.Paid != "" {
		paid, err := model.ParseCents(opts.Paid)
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid --paid", err)
		}
		req.AmountPaid = &paid
	}

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	tx, err := s.m.Checkout(req)
	if err != nil {
		code := ErrCodeInvalidInput
		if errors.Is(err, pos.ErrUnknownProduct) {
			code = ErrCodeNotFound
		}
		return s.out.Fail(ExitCommandError, code, "sale rejected", err)
	}

	low := lowStockIn(s, tx)
	for _, p := range low {
		s.log.Warn("product at or below minimum stock", "id", p.ID, "name", p.Name, "quantity", p.Quantity)
	}

	if s.out.Format == "json" {
		return s.out.Success(tx)
	}
	return writeReceipt(s.out.Writer, tx)
}

// lowStockIn returns the products sold in tx that are now low on stock.
func lowStockIn(s *session, tx *model.Transaction) []model.Product {
	var low []model.Product
	for _, item := range tx.Items {
		if p, ok := s.m.Product(item.ProductID()); ok && p.IsLowStock() {
			low = append(low, p)
		}
	}
	return low
}

// parseSaleLine parses PRODUCT_ID[:QUANTITY].
func parseSaleLine(arg string) (pos.SaleLine, error) {
	idPart, qtyPart, hasQty := strings.Cut(strings.TrimSpace(arg), ":")
	id, err := parseID(idPart)
	if err != nil {
		return pos.SaleLine{}, err
	}
	qty := 1
	if hasQty {
		qty, err = strconv.Atoi(qtyPart)
		if err != nil {
			return pos.SaleLine{}, fmt.Errorf("quantity %q is not a number", qtyPart)
		}
		if qty <= 0 {
			return pos.SaleLine{}, fmt.Errorf("quantity must be positive, got %d", qty)
		}
	}
	return pos.SaleLine{ProductID: id, Quantity: qty}, nil
}

func writeReceipt(w io.Writer, tx *model.Transaction) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Transaction #%d\t%s\n", tx.ID, tx.Timestamp.Format(export.TimestampLayout))
	for _, item := range tx.Items {
		fmt.Fprintf(tw, "  %s x%d\t$%s\n", item.Product.Name, item.Quantity, model.FormatCents(item.TotalPrice))
	}
	fmt.Fprintf(tw, "Subtotal\t$%s\n", model.FormatCents(tx.Subtotal))
	fmt.Fprintf(tw, "Tax\t$%s\n", model.FormatCents(tx.Tax))
	fmt.Fprintf(tw, "Total\t$%s\n", model.FormatCents(tx.Total))
	fmt.Fprintf(tw, "Paid (%s)\t$%s\n", tx.Payment(), model.FormatCents(tx.AmountPaid))
	fmt.Fprintf(tw, "Change\t$%s\n", model.FormatCents(tx.Change()))
	if tx.CustomerName != "" {
		fmt.Fprintf(tw, "Customer\t%s\n", tx.CustomerName)
	}
	return tw.Flush()
}

func newSaleListCommand(opts *SaleOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sales, newest first",
		Long: `List sales, newest first. --from and --to take YYYY-MM-DD dates in local
time and include the whole day.

Examples:
  gpos sale list
  gpos sale list --from 2024-03-01 --to 2024-03-31`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSaleList(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.From, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.To, "to", "", "last day (YYYY-MM-DD)")
	return cmd
}

func runSaleList(opts *SaleOptions, cmd *cobra.Command) (err error) {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	start, end, err := s.m.DayRange(opts.From, opts.To)
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid date range", err)
	}

	txs := s.m.TransactionsBetween(start, end)
	if s.out.Format == "json" {
		return s.out.Success(txs)
	}
	if len(txs) == 0 {
		fmt.Fprintln(s.out.Writer, "No sales found.")
		return nil
	}

	tw := tabwriter.NewWriter(s.out.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tITEMS\tTOTAL\tPAYMENT\tCUSTOMER")
	var sum int64
	for _, tx := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t$%s\t%s\t%s\n",
			tx.ID, tx.Timestamp.Format(export.TimestampLayout), tx.ItemCount(),
			model.FormatCents(tx.Total), tx.Payment(), tx.CustomerName)
		sum += tx.Total
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(s.out.Writer, "\n%d sales, $%s\n", len(txs), model.FormatCents(sum))
	return nil
}

func newSaleShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id>",
		Short:         "Show one sale",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			out := newFormatter(rootOpts, cmd)
			id, err := parseID(args[0])
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid transaction id", err)
			}

			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeSession(s, &err)

			tx, ok := s.m.Transaction(id)
			if !ok {
				return s.out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("transaction %d not found", id), nil)
			}
			if s.out.Format == "json" {
				return s.out.Success(tx)
			}
			return writeReceipt(s.out.Writer, tx)
		},
	}
}
