// Package types contains the wire shapes shared by the HTTP API and its clients.
package types

import (
	"time"

	"github.com/okian/stockroom/internal/domain/model"
)

// Item is the JSON form of a stocked item.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

// UpsertResult is returned by POST /items.
type UpsertResult struct {
	Outcome string `json:"outcome"`
	Item    Item   `json:"item"`
}

// Alert is the JSON form of a restocking alert.
type Alert struct {
	Seq       uint64    `json:"seq"`
	ItemID    string    `json:"item_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Quantity  int       `json:"quantity"`
	Threshold int       `json:"threshold"`
	At        time.Time `json:"at"`
}

// FromItem converts a domain item.
func FromItem(i model.Item) Item {
	return Item{ID: i.ID, Name: i.Name, Category: i.Category, Quantity: i.Quantity}
}

// FromItems converts a slice of domain items, never returning nil.
func FromItems(items []model.Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = FromItem(it)
	}
	return out
}

// FromAlert converts a domain alert.
func FromAlert(a model.Alert) Alert {
	return Alert{
		Seq:       a.Seq,
		ItemID:    a.ItemID,
		Name:      a.Name,
		Category:  a.Category,
		Quantity:  a.Quantity,
		Threshold: a.Threshold,
		At:        a.At,
	}
}

// ToModel converts back to a domain item.
func (i Item) ToModel() model.Item {
	return model.Item{ID: i.ID, Name: i.Name, Category: i.Category, Quantity: i.Quantity}
}
