package cache_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DMarby/additive-mask/internal/cache"
	"github.com/DMarby/additive-mask/internal/cache/memory"
	"github.com/DMarby/additive-mask/internal/cache/mock"
	"github.com/DMarby/additive-mask/internal/logger"
	"github.com/DMarby/additive-mask/internal/tracing/test"
	"go.uber.org/zap"
)

var mockLoaderFunc cache.LoaderFunc = func(ctx context.Context, key string) (data []byte, err error) {
	if key == "notfounderr" {
		return nil, fmt.Errorf("notfounderr")
	}

	return []byte("notfound"), nil
}

func TestAuto(t *testing.T) {
	log := logger.New(zap.ErrorLevel)
	defer log.Sync()

	auto := &cache.Auto{
		Tracer:   test.Tracer(log),
		Provider: &mock.Provider{},
	}

	tests := []struct {
		Key           string
		ExpectedError error
	}{
		{"foo", nil},
		{"notfound", nil},
		{"notfounderr", fmt.Errorf("notfounderr")},
		{"seterror", fmt.Errorf("seterror")},
		{"error", fmt.Errorf("error")},
	}

	for _, test := range tests {
		data, err := auto.Get(context.Background(), test.Key, mockLoaderFunc)
		if err != nil {
			if test.ExpectedError == nil {
				t.Errorf("%s: %s", test.Key, err)
				continue
			}

			if test.ExpectedError.Error() != err.Error() {
				t.Errorf("%s: wrong error: %s", test.Key, err)
			}

			continue
		}

		if test.ExpectedError != nil {
			t.Errorf("%s: no error", test.Key)
			continue
		}

		if string(data) != test.Key {
			t.Errorf("%s: wrong data", test.Key)
		}
	}
}

func TestAutoLoadsOnce(t *testing.T) {
	log := logger.New(zap.ErrorLevel)
	defer log.Sync()

	auto := &cache.Auto{
		Tracer:   test.Tracer(log),
		Provider: memory.New(0),
	}

	var loads int32
	loader := func(ctx context.Context, key string) ([]byte, error) {
		atomic.AddInt32(&loads, 1)
		return []byte("data"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := auto.Get(context.Background(), "key", loader); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	// Goroutines that miss the cache before the first Set may each load once
	if n := atomic.LoadInt32(&loads); n < 1 || n > 10 {
		t.Errorf("wrong amount of loads %d", n)
	}

	before := atomic.LoadInt32(&loads)
	if _, err := auto.Get(context.Background(), "key", loader); err != nil {
		t.Fatal(err)
	}

	if atomic.LoadInt32(&loads) != before {
		t.Error("cached data was loaded again")
	}
}
