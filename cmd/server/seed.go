package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ridwanfathin/vetclinic-billing-service/internal/domain"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/server"
	"github.com/spf13/cobra"
)

// seedFile is the layout of the file read by the seed command
type seedFile struct {
	Customers    []domain.Customer    `json:"customers"`
	CatalogItems []domain.CatalogItem `json:"catalog_items"`
}

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Load customers and catalog items from a JSON file",
	Example: `  vetbilling seed fixtures.json

  fixtures.json:
  {
    "customers": [{"name": "Jane Doe", "phone": "555-0100"}],
    "catalog_items": [{"item_type": "vaccination", "name": "Rabies", "selling_price": "350.00"}]
  }`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read seed file: %w", err)
		}
		var seed seedFile
		if err := json.Unmarshal(raw, &seed); err != nil {
			return fmt.Errorf("failed to parse seed file: %w", err)
		}

		ctx := cmd.Context()
		stores, err := server.OpenStores(ctx, cfg)
		if err != nil {
			return err
		}
		defer stores.Close()

		if err := stores.Migrate(ctx); err != nil {
			return err
		}

		for i := range seed.Customers {
			if err := stores.Directory.CreateCustomer(ctx, &seed.Customers[i]); err != nil {
				return err
			}
			log.Infow("customer created", "id", seed.Customers[i].ID, "name", seed.Customers[i].Name)
		}
		for i := range seed.CatalogItems {
			item := &seed.CatalogItems[i]
			if !item.ItemType.HasCatalogSource() {
				return fmt.Errorf("catalog item %q: item_type must be inventory_item or vaccination", item.Name)
			}
			if err := stores.Directory.CreateCatalogItem(ctx, item); err != nil {
				return err
			}
			log.Infow("catalog item created", "id", item.ID, "type", item.ItemType, "name", item.Name)
		}
		return nil
	},
}
