package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"
)

// Item is an entry of the item master.
type Item struct {
	ItemID      int64   `json:"itemID,omitempty"`
	ItemName    string  `json:"itemName" form:"itemName" validate:"required"`
	Description string  `json:"description"`
	SalesRate   float64 `json:"salesRate"`
	DiscountPct float64 `json:"discountPct"`
}

// ListItems returns the item master. A reply that is not an array yields
// an empty list.
func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	body, err := c.do(ctx, request{op: "item.list", method: http.MethodGet, path: "/Item/GetList"})
	if err != nil {
		return nil, err
	}
	items := []Item{}
	if !gjson.ParseBytes(body).IsArray() {
		return items, nil
	}
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("item.list: decode response: %w", err)
	}
	return items, nil
}

// GetItem loads one item.
func (c *Client) GetItem(ctx context.Context, id int64) (*Item, error) {
	var it Item
	if err := c.doJSON(ctx, "item.get", http.MethodGet, "/Item/GetByID/"+strconv.FormatInt(id, 10), nil, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// SaveItem creates the item when ItemID is zero and updates it otherwise.
func (c *Client) SaveItem(ctx context.Context, it Item) error {
	if it.ItemID == 0 {
		return c.doJSON(ctx, "item.create", http.MethodPost, "/Item/Create", it, nil)
	}
	return c.doJSON(ctx, "item.update", http.MethodPut, "/Item/Update", it, nil)
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.doJSON(ctx, "item.delete", http.MethodDelete, "/Item/Delete/"+strconv.FormatInt(id, 10), nil, nil)
}
