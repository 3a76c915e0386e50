package gallery

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/imagehost"
	"storefront/pkg/cache"
	"storefront/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard, io.Discard)
	os.Exit(m.Run())
}

type fakeHost struct {
	calls  atomic.Int32
	listFn func(ctx context.Context, opts imagehost.ListOptions) ([]imagehost.Resource, error)
}

func (f *fakeHost) Name() string { return "fake" }

func (f *fakeHost) List(ctx context.Context, opts imagehost.ListOptions) ([]imagehost.Resource, error) {
	f.calls.Add(1)
	return f.listFn(ctx, opts)
}

func (f *fakeHost) Upload(context.Context, imagehost.Upload) (imagehost.Resource, error) {
	return imagehost.Resource{}, errors.New("not implemented")
}

func (f *fakeHost) Delete(context.Context, string) error { return nil }

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func sample() []imagehost.Resource {
	return []imagehost.Resource{
		{PublicID: "g/old", SecureURL: "https://res.cloudinary.com/demo/image/upload/v1/g/old.jpg", CreatedAt: t0},
		{PublicID: "g/new", SecureURL: "https://res.cloudinary.com/demo/image/upload/v2/g/new.jpg", CreatedAt: t0.Add(time.Hour)},
	}
}

func TestList_SortsRewritesAndCaches(t *testing.T) {
	host := &fakeHost{listFn: func(_ context.Context, opts imagehost.ListOptions) ([]imagehost.Resource, error) {
		if opts.Max != 50 {
			t.Errorf("max = %d", opts.Max)
		}
		return sample(), nil
	}}
	store := cache.NewMemory(cache.Options{MaxCapacityMB: 1, TTL: time.Minute})
	defer store.Close()

	s := NewService(host, store, 50)
	ctx := context.Background()

	got, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].PublicID != "g/new" {
		t.Errorf("not newest first: %v", got)
	}
	if got[0].SecureURL != "https://res.cloudinary.com/demo/image/upload/f_auto,q_auto/v2/g/new.jpg" {
		t.Errorf("url = %s", got[0].SecureURL)
	}

	if _, err := s.List(ctx); err != nil {
		t.Fatal(err)
	}
	if host.calls.Load() != 1 {
		t.Errorf("host called %d times, want 1 (cached)", host.calls.Load())
	}

	s.Invalidate(ctx)
	if _, err := s.List(ctx); err != nil {
		t.Fatal(err)
	}
	if host.calls.Load() != 2 {
		t.Errorf("host called %d times after invalidate, want 2", host.calls.Load())
	}
}

func TestList_ErrorsAreNotCached(t *testing.T) {
	fail := true
	host := &fakeHost{listFn: func(context.Context, imagehost.ListOptions) ([]imagehost.Resource, error) {
		if fail {
			return nil, errors.New("401 invalid api key")
		}
		return sample(), nil
	}}
	s := NewService(host, nil, 0)

	if _, err := s.List(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	fail = false
	got, err := s.List(context.Background())
	if err != nil || len(got) != 2 {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestList_CancelledCallerDoesNotFailOthers(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	hostErrs := make(chan error, 2)

	host := &fakeHost{listFn: func(ctx context.Context, _ imagehost.ListOptions) ([]imagehost.Resource, error) {
		once.Do(func() { close(entered) })
		<-release
		hostErrs <- ctx.Err()
		return sample(), nil
	}}
	s := NewService(host, nil, 0)

	type result struct {
		res []imagehost.Resource
		err error
	}
	first := make(chan result, 1)
	second := make(chan result, 1)

	ctx1, cancel1 := context.WithCancel(context.Background())
	go func() {
		res, err := s.List(ctx1)
		first <- result{res, err}
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("host list was never called")
	}

	go func() {
		res, err := s.List(context.Background())
		second <- result{res, err}
	}()

	cancel1()
	select {
	case r := <-first:
		if !errors.Is(r.err, context.Canceled) {
			t.Errorf("cancelled caller err = %v, want context.Canceled", r.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return while the listing was in flight")
	}

	close(release)
	select {
	case r := <-second:
		if r.err != nil {
			t.Fatalf("second caller failed: %v", r.err)
		}
		if len(r.res) != 2 {
			t.Errorf("second caller got %d resources, want 2", len(r.res))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not return")
	}

	if err := <-hostErrs; err != nil {
		t.Errorf("host saw a cancelled context: %v", err)
	}
}

func TestAutoFormatURL(t *testing.T) {
	cases := map[string]string{
		"https://res.cloudinary.com/x/image/upload/v1/a.jpg":               "https://res.cloudinary.com/x/image/upload/f_auto,q_auto/v1/a.jpg",
		"https://res.cloudinary.com/x/image/upload/f_auto,q_auto/v1/a.jpg": "https://res.cloudinary.com/x/image/upload/f_auto,q_auto/v1/a.jpg",
		"http://localhost:5050/media/wj/gallery/abc":                       "http://localhost:5050/media/wj/gallery/abc",
		"": "",
	}
	for in, want := range cases {
		if got := AutoFormatURL(in); got != want {
			t.Errorf("AutoFormatURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrepare_EmptyIsNotNil(t *testing.T) {
	if got := Prepare(nil); got == nil {
		t.Error("Prepare(nil) must return an empty slice")
	}
}
