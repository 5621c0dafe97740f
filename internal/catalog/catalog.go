package catalog

import (
	"context"
	"strconv"
	"time"

	"github.com/diewo77/invoice-web/auth"
	"github.com/diewo77/invoice-web/internal/apiclient"
	"github.com/diewo77/invoice-web/internal/invoice"
	"github.com/sirupsen/logrus"
)

// ItemLister is the part of the API client the catalog needs.
type ItemLister interface {
	ListItems(ctx context.Context) ([]apiclient.Item, error)
}

// Catalog caches each company's item list.
type Catalog struct {
	api   ItemLister
	items *Cache[string, []apiclient.Item]
	log   logrus.FieldLogger
}

// New builds a catalog over api. The scope key only partitions the cache;
// the items themselves come from whichever token travels in ctx.
func New(api ItemLister, ttl time.Duration, log logrus.FieldLogger) *Catalog {
	load := LoaderFunc[string, []apiclient.Item](func(ctx context.Context, _ string) ([]apiclient.Item, error) {
		return api.ListItems(ctx)
	})
	return &Catalog{api: api, items: NewCache[string, []apiclient.Item](load, ttl), log: log}
}

// scope names the cache entry for a caller: the company when known, else
// the session. Without either the list is not cached.
func scope(ctx context.Context, companyID int64) string {
	if companyID > 0 {
		return "company:" + strconv.FormatInt(companyID, 10)
	}
	if sid, ok := auth.SessionIDFromContext(ctx); ok {
		return "session:" + sid
	}
	return ""
}

// Items returns the item list of a company, or of the session in ctx when
// companyID is 0.
func (c *Catalog) Items(ctx context.Context, companyID int64) ([]apiclient.Item, error) {
	key := scope(ctx, companyID)
	if key == "" {
		return c.api.ListItems(ctx)
	}
	return c.items.Get(ctx, key)
}

// Names returns a lookup for invoice.Describe. Lookup failures yield an
// empty name and are only logged.
func (c *Catalog) Names(ctx context.Context, companyID int64) invoice.NameLookup {
	items, err := c.Items(ctx, companyID)
	if err != nil {
		c.log.WithError(err).Debug("catalog: item names unavailable")
	}
	byID := make(map[int64]string, len(items))
	for _, it := range items {
		byID[it.ItemID] = it.ItemName
	}
	return func(id int64) string { return byID[id] }
}

// Invalidate drops the cached items of the caller after an item is changed.
func (c *Catalog) Invalidate(ctx context.Context, companyID int64) {
	if key := scope(ctx, companyID); key != "" {
		c.items.Invalidate(key)
	}
}
