package cache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/podium/internal/domain/cache"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStore(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		s := cache.New[string, []int](cache.WithName("test"), cache.WithClock(func() time.Time { return fixed }))

		Convey("When getting a missing key", func() {
			_, ok := s.Get(ctx, "M")

			Convey("Then it should miss", func() {
				So(ok, ShouldBeFalse)
				So(s.Len(), ShouldEqual, 0)
				So(s.Name(), ShouldEqual, "test")
			})
		})

		Convey("When a value is put", func() {
			s.Put(ctx, "M", []int{3, 2, 1}, cache.Meta{Limit: 10})
			e, ok := s.Get(ctx, "M")

			Convey("Then it should be returned fresh with its metadata", func() {
				So(ok, ShouldBeTrue)
				So(e.Fresh, ShouldBeTrue)
				So(e.Value, ShouldResemble, []int{3, 2, 1})
				So(e.Limit, ShouldEqual, 10)
				So(e.FetchedAt, ShouldEqual, fixed)
			})

			Convey("And replaced by a second put", func() {
				s.Put(ctx, "M", []int{9}, cache.Meta{Limit: 20})
				e, _ := s.Get(ctx, "M")

				So(e.Value, ShouldResemble, []int{9})
				So(e.Limit, ShouldEqual, 20)
				So(s.Len(), ShouldEqual, 1)
			})

			Convey("And invalidated", func() {
				So(s.Invalidate(ctx, "M"), ShouldBeTrue)
				So(s.Invalidate(ctx, "F"), ShouldBeFalse)
				e, ok := s.Get(ctx, "M")

				Convey("Then the entry should be kept but stale", func() {
					So(ok, ShouldBeTrue)
					So(e.Fresh, ShouldBeFalse)
					So(e.Value, ShouldResemble, []int{3, 2, 1})
				})
			})
		})

		Convey("When several keys are stored", func() {
			s.Put(ctx, "F", nil, cache.Meta{})
			s.Put(ctx, "M", nil, cache.Meta{})

			Convey("Then keys should be sorted and all can be invalidated", func() {
				So(s.Keys(func(k string) string { return k }), ShouldResemble, []string{"F", "M"})
				So(s.InvalidateAll(ctx), ShouldEqual, 2)
				e, _ := s.Get(ctx, "F")
				So(e.Fresh, ShouldBeFalse)
			})
		})
	})
}

func TestStoreConcurrentAccess(t *testing.T) {
	Convey("Given a store shared by many goroutines", t, func() {
		ctx := context.Background()
		s := cache.New[string, int]()

		Convey("When they put and get concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					key := fmt.Sprintf("k%d", i%5)
					s.Put(ctx, key, i, cache.Meta{})
					s.Get(ctx, key)
				}(i)
			}
			wg.Wait()

			Convey("Then every key should be present once", func() {
				So(s.Len(), ShouldEqual, 5)
			})
		})
	})
}
