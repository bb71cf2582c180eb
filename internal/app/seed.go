package service

import (
	"context"

	"github.com/okian/stockroom/internal/domain/model"
	"github.com/okian/stockroom/pkg/logger"
)

// SampleItems is the demo inventory loaded when sample data is enabled.
func SampleItems() []model.Item {
	return []model.Item{
		{ID: "101", Name: "Laptop", Category: "Electronics", Quantity: 50},
		{ID: "102", Name: "Phone", Category: "Electronics", Quantity: 5},
		{ID: "103", Name: "Chair", Category: "Furniture", Quantity: 30},
		{ID: "104", Name: "Table", Category: "Furniture", Quantity: 15},
		{ID: "105", Name: "Apple", Category: "Groceries", Quantity: 100},
		{ID: "106", Name: "Milk", Category: "Groceries", Quantity: 8},
	}
}

func (s *Service) seedSampleData(ctx context.Context) {
	items := SampleItems()
	for _, it := range items {
		s.store.Upsert(ctx, it)
	}
	s.logger.Info(ctx, "sample inventory loaded", logger.Int("items", len(items)))
}
