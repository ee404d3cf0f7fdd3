package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"goflare.io/storefront"
	"goflare.io/storefront/catalog"
	"goflare.io/storefront/config"
	"goflare.io/storefront/driver"
	"goflare.io/storefront/logger"
	"goflare.io/storefront/models"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cliApp := &cli.App{
		Name:  "storefront",
		Usage: "browse the product catalog, manage a cart and run a checkout",
		Commands: []*cli.Command{
			migrateCommand(),
			syncCatalogCommand(),
			productsCommand(),
			productCommand(),
			categoriesCommand(),
			demoCheckoutCommand(),
		},
	}

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run loads configuration, wires the app and hands it to fn.
func run(c *cli.Context, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	a, err := newApp(c.Context, cfg, log)
	if err != nil {
		log.Error("Failed to start", zap.Error(err))
		return err
	}
	defer a.close()

	return fn(c.Context, a)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply the catalog mirror and event log migrations",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "down", Usage: "roll back `N` migrations instead"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Postgres.DSN == "" {
				return errors.New("STOREFRONT_POSTGRES_DSN is required")
			}
			log, err := logger.New(cfg.LogLevel, cfg.IsProduction())
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if steps := c.Int("down"); steps > 0 {
				return driver.MigrateDown(cfg.Postgres.DSN, steps, log)
			}
			return driver.Migrate(cfg.Postgres.DSN, log)
		},
	}
}

func syncCatalogCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync-catalog",
		Usage: "copy the remote catalog into the Postgres mirror",
		Action: func(c *cli.Context) error {
			return run(c, func(ctx context.Context, a *app) error {
				if a.pool == nil {
					return errors.New("STOREFRONT_POSTGRES_DSN is required")
				}

				syncer := catalog.NewSyncer(a.remote,
					catalog.NewRepository(a.pool, a.logger),
					driver.NewTransactionManager(a.pool, a.logger),
					a.logger)
				result, err := syncer.Sync(ctx)
				if err != nil {
					return err
				}
				if a.cache != nil {
					if err = a.cache.Invalidate(ctx); err != nil {
						a.logger.Warn("Failed to invalidate catalog cache", zap.Error(err))
					}
				}

				fmt.Printf("synced %d products and %d categories in %s\n",
					result.Products, result.Categories, result.Duration.Round(time.Millisecond))
				return nil
			})
		},
	}
}

func productsCommand() *cli.Command {
	return &cli.Command{
		Name:  "products",
		Usage: "list products, optionally searched and filtered",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "match title, description or category"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}},
			&cli.StringFlag{Name: "min-price"},
			&cli.StringFlag{Name: "max-price"},
			&cli.BoolFlag{Name: "featured", Usage: "show the featured products only"},
		},
		Action: func(c *cli.Context) error {
			var (
				query = storefront.ProductQuery{Search: c.String("search"), Category: c.String("category")}
				err   error
			)
			if query.Price.Min, err = parsePrice(c.String("min-price")); err != nil {
				return err
			}
			if query.Price.Max, err = parsePrice(c.String("max-price")); err != nil {
				return err
			}

			return run(c, func(ctx context.Context, a *app) error {
				var products []models.Product
				if c.Bool("featured") {
					products, err = a.svc.FeaturedProducts(ctx)
				} else {
					products, err = a.svc.Browse(ctx, query)
				}
				if err != nil {
					return err
				}
				printProducts(products)
				return nil
			})
		},
	}
}

func productCommand() *cli.Command {
	return &cli.Command{
		Name:      "product",
		Usage:     "show one product and related products",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := strconv.Atoi(c.Args().First())
			if err != nil {
				return fmt.Errorf("invalid product id %q", c.Args().First())
			}

			return run(c, func(ctx context.Context, a *app) error {
				product, related, err := a.svc.ProductDetail(ctx, id)
				if err != nil {
					return err
				}

				fmt.Printf("%s\n%s  ·  %s  ·  %.1f (%d reviews)\n\n%s\n",
					product.Title, models.FormatPrice(product.Price), product.Category,
					product.Rating.Rate, product.Rating.Count, product.Description)
				if len(related) > 0 {
					fmt.Println("\nYou may also like:")
					printProducts(related)
				}
				return nil
			})
		},
	}
}

func categoriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "list product categories",
		Action: func(c *cli.Context) error {
			return run(c, func(ctx context.Context, a *app) error {
				categories, err := a.svc.Categories(ctx)
				if err != nil {
					return err
				}
				for _, category := range categories {
					fmt.Println(category)
				}
				return nil
			})
		},
	}
}

func demoCheckoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo-checkout",
		Usage: "run a scripted session from cart to confirmation",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Usage: "resume a saved session `ID`"},
			&cli.StringSliceFlag{Name: "item", Usage: "`ID[:QTY]` to add, repeatable", Value: cli.NewStringSlice("1:2", "2")},
			&cli.StringFlag{Name: "email", Value: "ada@example.com"},
			&cli.StringFlag{Name: "card", Value: "4111 1111 1111 1111"},
			&cli.StringFlag{Name: "expiry", Value: "12/30"},
		},
		Action: func(c *cli.Context) error {
			items, err := parseItems(c.StringSlice("item"))
			if err != nil {
				return err
			}

			return run(c, func(ctx context.Context, a *app) error {
				var sess *storefront.Session
				if id := c.String("session"); id != "" {
					sess, err = a.svc.ResumeSession(ctx, id)
				} else {
					sess, err = a.svc.NewSession(ctx)
				}
				if err != nil {
					return err
				}
				fmt.Println("session", sess.ID())

				for _, it := range items {
					if err = sess.AddToCart(ctx, it.productID, it.quantity); err != nil {
						return err
					}
				}
				printCart(sess)

				flow, err := sess.StartCheckout()
				if err != nil {
					return err
				}
				if err = flow.SubmitShipping(models.ShippingDetails{
					FirstName: "Ada",
					LastName:  "Lovelace",
					Email:     c.String("email"),
					Phone:     "555-0100",
					Address:   "12 Analytical St",
					City:      "London",
					State:     "LDN",
					Zip:       "10001",
					Country:   models.DefaultCountry,
				}); err != nil {
					return err
				}
				if err = flow.SubmitPayment(models.PaymentDetails{
					CardNumber: c.String("card"),
					CardName:   "Ada Lovelace",
					ExpiryDate: c.String("expiry"),
					CVV:        "123",
				}); err != nil {
					return err
				}

				fmt.Println("processing payment...")
				if err = flow.Wait(ctx); err != nil {
					return err
				}

				placed, ok := flow.Order()
				if !ok {
					return errors.New("checkout finished without an order")
				}
				fmt.Printf("\nOrder %s placed\n", placed.ID)
				printSummary(placed.Summary)
				fmt.Printf("A confirmation email has been sent to %s\n", placed.Shipping.Email)
				return nil
			})
		},
	}
}

type item struct {
	productID int
	quantity  int
}

func parseItems(values []string) ([]item, error) {
	items := make([]item, 0, len(values))
	for _, v := range values {
		idPart, qtyPart, hasQty := strings.Cut(v, ":")
		id, err := strconv.Atoi(idPart)
		if err != nil {
			return nil, fmt.Errorf("invalid item %q", v)
		}
		qty := 1
		if hasQty {
			if qty, err = strconv.Atoi(qtyPart); err != nil {
				return nil, fmt.Errorf("invalid item %q", v)
			}
		}
		items = append(items, item{productID: id, quantity: qty})
	}
	return items, nil
}

func parsePrice(value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	price, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", value, err)
	}
	return &price, nil
}

func printProducts(products []models.Product) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, p := range products {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Title, p.Category, models.FormatPrice(p.Price))
	}
	_ = w.Flush()
}

func printCart(sess *storefront.Session) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, line := range sess.Cart().Lines() {
		fmt.Fprintf(w, "%s\t× %d\t%s\n", line.Title, line.Quantity, models.FormatPrice(line.Subtotal()))
	}
	_ = w.Flush()
}

func printSummary(summary models.OrderSummary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Subtotal (%d items)\t%s\t\n", summary.Count, models.FormatPrice(summary.Subtotal))
	fmt.Fprintf(w, "Shipping\t%s\t\n", "Free")
	fmt.Fprintf(w, "Tax\t%s\t\n", models.FormatPrice(summary.Tax))
	fmt.Fprintf(w, "Total\t%s\t\n", models.FormatPrice(summary.Total))
	_ = w.Flush()
}
