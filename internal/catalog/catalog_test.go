package catalog

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/diewo77/invoice-web/auth"
	"github.com/diewo77/invoice-web/internal/apiclient"
	"github.com/diewo77/invoice-web/internal/invoice"
	"github.com/sirupsen/logrus"
)

type countingLister struct {
	calls int
	items []apiclient.Item
	err   error
}

func (l *countingLister) ListItems(context.Context) ([]apiclient.Item, error) {
	l.calls++
	return l.items, l.err
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestCache_CachesUntilExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	loads := 0
	c := NewCache[string, int](LoaderFunc[string, int](func(context.Context, string) (int, error) {
		loads++
		return loads, nil
	}), time.Minute)
	c.now = func() time.Time { return now }

	v1, _ := c.Get(context.Background(), "k")
	v2, _ := c.Get(context.Background(), "k")
	if v1 != 1 || v2 != 1 {
		t.Fatalf("expected cached 1, got %d then %d", v1, v2)
	}

	now = now.Add(time.Minute)
	v3, _ := c.Get(context.Background(), "k")
	if v3 != 2 {
		t.Fatalf("expected reload after ttl, got %d", v3)
	}
}

func TestCache_Invalidate(t *testing.T) {
	loads := 0
	c := NewCache[string, int](LoaderFunc[string, int](func(context.Context, string) (int, error) {
		loads++
		return loads, nil
	}), time.Hour)
	ctx := context.Background()

	_, _ = c.Get(ctx, "a")
	_, _ = c.Get(ctx, "b")
	c.Invalidate("a")
	if v, _ := c.Get(ctx, "a"); v != 3 {
		t.Errorf("expected reload of a, got %d", v)
	}
	if v, _ := c.Get(ctx, "b"); v != 2 {
		t.Errorf("expected cached b, got %d", v)
	}
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	fail := true
	c := NewCache[int, string](LoaderFunc[int, string](func(context.Context, int) (string, error) {
		if fail {
			return "", errors.New("down")
		}
		return "ok", nil
	}), time.Hour)

	if _, err := c.Get(context.Background(), 1); err == nil {
		t.Fatal("expected error")
	}
	fail = false
	if v, err := c.Get(context.Background(), 1); err != nil || v != "ok" {
		t.Fatalf("got %q, %v", v, err)
	}
}

func TestCatalog_NamesFeedDescribe(t *testing.T) {
	api := &countingLister{items: []apiclient.Item{{ItemID: 3, ItemName: "Widget"}}}
	cat := New(api, time.Hour, quiet())
	ctx := context.Background()

	names := cat.Names(ctx, 1)
	id := int64(3)
	if got := invoice.Describe(invoice.LineItem{ItemID: &id}, names); got != "Widget" {
		t.Errorf("Describe = %q, want Widget", got)
	}
	other := int64(9)
	if got := invoice.Describe(invoice.LineItem{ItemID: &other}, names); got != "Item ID 9" {
		t.Errorf("Describe = %q, want Item ID 9", got)
	}

	_ = cat.Names(ctx, 1)
	if api.calls != 1 {
		t.Errorf("expected one remote call, got %d", api.calls)
	}
	cat.Invalidate(ctx, 1)
	_, _ = cat.Items(ctx, 1)
	if api.calls != 2 {
		t.Errorf("expected reload after invalidate, got %d calls", api.calls)
	}
}

func TestCatalog_LookupFailureDegradesToEmpty(t *testing.T) {
	cat := New(&countingLister{err: errors.New("timeout")}, time.Hour, quiet())
	names := cat.Names(context.Background(), 1)
	if got := names(3); got != "" {
		t.Errorf("expected empty name, got %q", got)
	}
}

func TestCatalog_CompanylessSessionsDoNotShare(t *testing.T) {
	api := &perSessionLister{items: map[string][]apiclient.Item{
		"alice": {{ItemID: 1, ItemName: "alice-widget"}},
		"bob":   {{ItemID: 1, ItemName: "bob-widget"}},
	}}
	cat := New(api, time.Hour, quiet())
	alice := auth.WithSessionID(context.Background(), "alice")
	bob := auth.WithSessionID(context.Background(), "bob")

	if got := cat.Names(alice, 0)(1); got != "alice-widget" {
		t.Fatalf("alice got %q", got)
	}
	if got := cat.Names(bob, 0)(1); got != "bob-widget" {
		t.Fatalf("bob got %q, want his own catalog", got)
	}
	_ = cat.Names(alice, 0)
	if api.calls != 2 {
		t.Errorf("expected one load per session, got %d", api.calls)
	}

	cat.Invalidate(bob, 0)
	_, _ = cat.Items(bob, 0)
	_, _ = cat.Items(alice, 0)
	if api.calls != 3 {
		t.Errorf("invalidating bob must not drop alice, got %d calls", api.calls)
	}
}

func TestCatalog_NoScopeIsNotCached(t *testing.T) {
	api := &countingLister{items: []apiclient.Item{{ItemID: 3, ItemName: "Widget"}}}
	cat := New(api, time.Hour, quiet())
	_, _ = cat.Items(context.Background(), 0)
	_, _ = cat.Items(context.Background(), 0)
	if api.calls != 2 {
		t.Errorf("expected a remote call each time, got %d", api.calls)
	}
}

type perSessionLister struct {
	items map[string][]apiclient.Item
	calls int
}

func (l *perSessionLister) ListItems(ctx context.Context) ([]apiclient.Item, error) {
	l.calls++
	sid, _ := auth.SessionIDFromContext(ctx)
	return l.items[sid], nil
}
