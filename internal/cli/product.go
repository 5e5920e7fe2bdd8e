package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/gpos/internal/model"
)

// ProductOptions holds flags for product subcommands.
type ProductOptions struct {
	*RootOptions

	// list filters
	Category string
	Search   string
	Barcode  string
	LowStock bool

	// add/update fields
	ID          int
	Name        string
	Description string
	Price       string
	Quantity    int
	MinStock    int
	ProductCat  string
	ProductCode string
	Active      bool
}

// NewProductCommand creates the product command group.
func NewProductCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage the product catalog",
	}
	cmd.AddCommand(newProductListCommand(&ProductOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newProductAddCommand(&ProductOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newProductUpdateCommand(&ProductOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newProductDeleteCommand(rootOpts))
	cmd.AddCommand(newProductCategoriesCommand(rootOpts))
	return cmd
}

func newProductListCommand(opts *ProductOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Long: `List products, optionally filtered.

Examples:
  gpos product list
  gpos product list --category Beverages
  gpos product list --search cof
  gpos product list --barcode COF001
  gpos product list --low-stock --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProductList(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Category, "category", "", "only products in this category")
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "match id, name, description or barcode")
	cmd.Flags().StringVar(&opts.Barcode, "barcode", "", "exact barcode lookup")
	cmd.Flags().BoolVar(&opts.LowStock, "low-stock", false, "only products at or below minimum stock")
	return cmd
}

func runProductList(opts *ProductOptions, cmd *cobra.Command) (err error) {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	var products []model.Product
	switch {
	case opts.Barcode != "":
		products = []model.Product{}
		if p, ok := s.m.ProductByBarcode(opts.Barcode); ok {
			products = append(products, p)
		}
	case opts.LowStock:
		products = s.m.LowStockProducts()
	case opts.Search != "":
		products = s.m.SearchProducts(opts.Search)
	default:
		products = s.m.ProductsByCategory(opts.Category)
	}
	if opts.Category != "" && (opts.Search != "" || opts.LowStock) {
		products = filterCategory(products, opts.Category)
	}

	if s.out.Format == "json" {
		return s.out.Success(products)
	}
	if len(products) == 0 {
		fmt.Fprintln(s.out.Writer, "No products found.")
		return nil
	}
	return writeProductTable(s.out.Writer, products)
}

func filterCategory(products []model.Product, category string) []model.Product {
	out := []model.Product{}
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func writeProductTable(w io.Writer, products []model.Product) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK\tMIN\tBARCODE")
	for _, p := range products {
		stock := strconv.Itoa(p.Quantity)
		if p.IsLowStock() {
			stock += "!"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			p.ID, p.Name, p.EffectiveCategory(), model.FormatCents(p.Price), stock, p.MinStockLevel, p.Barcode)
	}
	return tw.Flush()
}

func addProductFieldFlags(cmd *cobra.Command, opts *ProductOptions) {
	cmd.Flags().StringVar(&opts.Name, "name", "", "product name")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	cmd.Flags().StringVar(&opts.Price, "price", "", "unit price, e.g. 2.50")
	cmd.Flags().IntVar(&opts.Quantity, "quantity", 0, "units in stock")
	cmd.Flags().IntVar(&opts.MinStock, "min-stock", model.DefaultMinStockLevel, "low-stock threshold")
	cmd.Flags().StringVar(&opts.ProductCat, "category", "", "category")
	cmd.Flags().StringVar(&opts.ProductCode, "barcode", "", "barcode")
}

func newProductAddCommand(opts *ProductOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		Long: `Add a product to the catalog. The next free id is assigned unless --id is given.

Examples:
  gpos product add --name Tea --price 1.80 --category Beverages --quantity 40
  gpos product add --id 100 --name Gift Card --price 25`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProductAdd(opts, cmd)
		},
	}
	addProductFieldFlags(cmd, opts)
	cmd.Flags().IntVar(&opts.ID, "id", 0, "explicit product id")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func runProductAdd(opts *ProductOptions, cmd *cobra.Command) (err error) {
	out := newFormatter(opts.RootOptions, cmd)

	price, err := model.ParseCents(opts.Price)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid --price", err)
	}
	p := model.NewProduct(opts.Name, price, opts.ProductCat)
	p.ID = opts.ID
	p.Description = opts.Description
	p.Quantity = opts.Quantity
	p.MinStockLevel = opts.MinStock
	p.Barcode = opts.ProductCode
	if err := p.Validate(); err != nil {
		return out.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid product", err)
	}

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	if p.ID != 0 {
		if _, exists := s.m.Product(p.ID); exists {
			return s.out.Fail(ExitCommandError, ErrCodeInvalidInput,
				fmt.Sprintf("product id %d already exists", p.ID), nil)
		}
	}

	added := s.m.AddProduct(p)
	if s.out.Format == "json" {
		return s.out.Success(added)
	}
	fmt.Fprintf(s.out.Writer, "Added product %d: %s ($%s)\n", added.ID, added.Name, model.FormatCents(added.Price))
	return nil
}

func newProductUpdateCommand(opts *ProductOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a product",
		Long: `Update a product. Only the flags given are changed.

Examples:
  gpos product update 1 --price 2.75
  gpos product update 3 --quantity 0 --active=false`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProductUpdate(opts, args[0], cmd)
		},
	}
	addProductFieldFlags(cmd, opts)
	cmd.Flags().BoolVar(&opts.Active, "active", true, "whether the product is for sale")
	return cmd
}

func runProductUpdate(opts *ProductOptions, idArg string, cmd *cobra.Command) (err error) {
	out := newFormatter(opts.RootOptions, cmd)
	id, err := parseID(idArg)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid product id", err)
	}

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	p, ok := s.m.Product(id)
	if !ok {
		return s.out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("product %d not found", id), nil)
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		p.Name = opts.Name
	}
	if flags.Changed("description") {
		p.Description = opts.Description
	}
	if flags.Changed("price") {
		price, err := model.ParseCents(opts.Price)
		if err != nil {
			return s.out.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid --price", err)
		}
		p.Price = price
	}
	if flags.Changed("quantity") {
		p.Quantity = opts.Quantity
	}
	if flags.Changed("min-stock") {
		p.MinStockLevel = opts.MinStock
	}
	if flags.Changed("category") {
		p.Category = opts.ProductCat
	}
	if flags.Changed("barcode") {
		p.Barcode = opts.ProductCode
	}
	if flags.Changed("active") {
		p.Active = opts.Active
	}
	if err := p.Validate(); err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid product", err)
	}

	s.m.UpdateProduct(p)
	if s.out.Format == "json" {
		return s.out.Success(p)
	}
	fmt.Fprintf(s.out.Writer, "Updated product %d: %s\n", p.ID, p.Name)
	return nil
}

func newProductDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a product",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProductDelete(rootOpts, args[0], cmd)
		},
	}
}

func runProductDelete(opts *RootOptions, idArg string, cmd *cobra.Command) (err error) {
	out := newFormatter(opts, cmd)
	id, err := parseID(idArg)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid product id", err)
	}

	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	if !s.m.DeleteProduct(id) {
		return s.out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("product %d not found", id), nil)
	}
	if s.out.Format == "json" {
		return s.out.Success(map[string]int{"deleted": id})
	}
	fmt.Fprintf(s.out.Writer, "Deleted product %d\n", id)
	return nil
}

func newProductCategoriesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "categories",
		Short:         "List product categories",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeSession(s, &err)

			categories := s.m.Categories()
			if s.out.Format == "json" {
				return s.out.Success(categories)
			}
			for _, c := range categories {
				fmt.Fprintln(s.out.Writer, c)
			}
			return nil
		},
	}
}

// parseID parses a positive integer id argument.
func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", arg)
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", id)
	}
	return id, nil
}
