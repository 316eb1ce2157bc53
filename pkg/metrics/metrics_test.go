package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "podium")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})
		})

		Convey("When passing empty option values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithCustomLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "podium")
				So(manager.subsystem, ShouldEqual, "aggregator")
				So(len(manager.histogramBuckets), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(registry))

		Convey("When recording cache lookups", func() {
			m.RecordCacheLookup("leaderboard", CacheHit)
			m.RecordCacheLookup("leaderboard", CacheHit)
			m.RecordCacheLookup("leaderboard", CacheMiss)

			Convey("Then hits and misses should be counted separately", func() {
				So(testutil.ToFloat64(m.cacheLookups.WithLabelValues("leaderboard", CacheHit)), ShouldEqual, 2)
				So(testutil.ToFloat64(m.cacheLookups.WithLabelValues("leaderboard", CacheMiss)), ShouldEqual, 1)
			})
		})

		Convey("When recording upstream requests and retries", func() {
			m.RecordUpstreamRequest("historical-leaderboard", "ok", 12)
			m.RecordUpstreamRequest("historical-leaderboard", "network_error", 30)
			m.RecordUpstreamRetry("historical-leaderboard")

			Convey("Then the counters should reflect them", func() {
				So(testutil.ToFloat64(m.upstreamRequests.WithLabelValues("historical-leaderboard", "ok")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.upstreamRetries.WithLabelValues("historical-leaderboard")), ShouldEqual, 1)
			})
		})

		Convey("When recording facade outcomes", func() {
			m.RecordAggregation("leaderboard", "ready", 5)
			m.RecordStaleDiscard("leaderboard")
			m.RecordSharedFetch("series")
			m.RecordSeriesDropped("label", 2)
			m.RecordSeriesDropped("empty", 0)
			m.UpdateCacheEntries("leaderboard", 2)

			Convey("Then each metric should be updated", func() {
				So(testutil.ToFloat64(m.aggregations.WithLabelValues("leaderboard", "ready")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.staleDiscards.WithLabelValues("leaderboard")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.sharedFetches.WithLabelValues("series")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.seriesDropped.WithLabelValues("label")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.cacheEntries.WithLabelValues("leaderboard")), ShouldEqual, 2)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global metrics helpers", t, func() {
		Convey("Then recording should not panic", func() {
			So(func() {
				RecordUpstreamRequest("weight-class-evolution", "ok", 3)
				RecordUpstreamRetry("weight-class-evolution")
				RecordCacheLookup("series", CacheMiss)
				UpdateCacheEntries("series", 1)
				RecordSharedFetch("series")
				RecordAggregation("series", "empty", 1)
				RecordStaleDiscard("series")
				RecordSeriesDropped("empty", 1)
				RecordHTTPRequest("series", "GET", "200", 2)
				RecordErrorByEndpoint("series", "GET", "client_error")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry should be exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
