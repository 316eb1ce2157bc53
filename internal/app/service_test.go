package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/okian/podium/internal/adapters/analytics"
	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/series"
	"github.com/okian/podium/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	goleak.VerifyTestMain(m)
}

// fakeSource serves canned results and counts upstream calls.
type fakeSource struct {
	mu         sync.Mutex
	boards     map[model.Dimension][]model.ResultRecord
	evolutions map[model.Dimension]series.Raw
	errs       map[model.Dimension]error
	gates      map[model.Dimension]chan struct{}
	started    chan model.Dimension
	calls      map[string]int
	limits     []int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		boards:     map[model.Dimension][]model.ResultRecord{},
		evolutions: map[model.Dimension]series.Raw{},
		errs:       map[model.Dimension]error{},
		gates:      map[model.Dimension]chan struct{}{},
		started:    make(chan model.Dimension, 16),
		calls:      map[string]int{},
	}
}

func (f *fakeSource) enter(kind string, sex model.Dimension) (chan struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[kind+":"+string(sex)]++
	return f.gates[sex], f.errs[sex]
}

func (f *fakeSource) Leaderboard(_ context.Context, sex model.Dimension, limit int) ([]model.ResultRecord, error) {
	gate, err := f.enter("board", sex)
	f.started <- sex
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, limit)
	out := f.boards[sex]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSource) Evolution(_ context.Context, sex model.Dimension, _ model.CategoryGroup) (series.Raw, error) {
	gate, err := f.enter("series", sex)
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.evolutions[sex], nil
}

func (f *fakeSource) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeSource) set(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn()
}

func board(sex model.Dimension, scores ...float64) []model.ResultRecord {
	out := make([]model.ResultRecord, len(scores))
	for i, s := range scores {
		out[i] = model.ResultRecord{ID: model.ID(fmt.Sprintf("%s%d", sex, i)), Sex: sex, Score: s}
	}
	return out
}

func scores(standings []model.Standing) []float64 {
	out := make([]float64, len(standings))
	for i, s := range standings {
		out[i] = s.Score
	}
	return out
}

func clock2024() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

func TestLeaderboard(t *testing.T) {
	Convey("Given a service over per-sex leaderboards", t, func() {
		src := newFakeSource()
		src.boards[model.Male] = board(model.Male, 500, 480)
		src.boards[model.Female] = board(model.Female, 510, 300)
		svc := service.New(src, service.WithClock(clock2024))
		ctx := context.Background()

		Convey("When the combined board is requested with a limit of 3", func() {
			res, err := svc.Leaderboard(ctx, model.FilterMixed, 3)

			Convey("Then both sexes should be merged and ranked", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, service.StatusReady)
				So(scores(res.Standings), ShouldResemble, []float64{510, 500, 480})
				So(res.Standings[0].Rank, ShouldEqual, 1)
				So(res.RequestID, ShouldNotBeEmpty)
			})

			Convey("Then the podium should read second, first, third", func() {
				So(scores(res.Podium), ShouldResemble, []float64{500, 510, 480})
				So(res.Rest, ShouldBeEmpty)
			})
		})

		Convey("When the same sex is requested twice", func() {
			_, err1 := svc.Leaderboard(ctx, model.Filter(model.Male), 10)
			_, err2 := svc.Leaderboard(ctx, model.Filter(model.Male), 10)

			Convey("Then only one upstream fetch should happen", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(src.count("board:M"), ShouldEqual, 1)
			})

			Convey("And the combined board should reuse the cached sex", func() {
				_, err := svc.Leaderboard(ctx, model.FilterMixed, 10)
				So(err, ShouldBeNil)
				So(src.count("board:M"), ShouldEqual, 1)
				So(src.count("board:F"), ShouldEqual, 1)
			})
		})

		Convey("When boards of different sizes are requested", func() {
			_, _ = svc.Leaderboard(ctx, model.Filter(model.Male), 10)
			_, _ = svc.Leaderboard(ctx, model.Filter(model.Male), 20)
			res, err := svc.Leaderboard(ctx, model.Filter(model.Male), 1)

			Convey("Then one fetch of the maximum size should serve all of them", func() {
				So(err, ShouldBeNil)
				So(scores(res.Standings), ShouldResemble, []float64{500})
				So(src.count("board:M"), ShouldEqual, 1)
				So(src.limits, ShouldResemble, []int{100})
			})
		})

		Convey("When the request id is set by the caller", func() {
			res, err := svc.Leaderboard(analytics.WithRequestID(ctx, "abc"), model.Filter(model.Female), 0)

			Convey("Then it should be kept and the default limit applied", func() {
				So(err, ShouldBeNil)
				So(res.RequestID, ShouldEqual, "abc")
				So(res.Limit, ShouldEqual, 10)
			})
		})

		Convey("When a sex has no results", func() {
			src.boards[model.Female] = nil
			res, err := svc.Leaderboard(ctx, model.Filter(model.Female), 10)

			Convey("Then the result should be empty, not an error", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, service.StatusEmpty)
				So(res.Standings, ShouldBeEmpty)
			})
		})

		Convey("When the limit exceeds the maximum", func() {
			_, err := svc.Leaderboard(ctx, model.FilterMixed, 1000)

			Convey("Then it should be rejected without fetching", func() {
				So(errors.Is(err, service.ErrInvalidLimit), ShouldBeTrue)
				So(src.count("board:M"), ShouldEqual, 0)
			})
		})

		Convey("When the cache is refreshed", func() {
			_, _ = svc.Leaderboard(ctx, model.FilterMixed, 10)
			n := svc.Refresh(ctx, model.Filter(model.Male))
			_, _ = svc.Leaderboard(ctx, model.FilterMixed, 10)

			Convey("Then only the refreshed sex should be refetched", func() {
				So(n, ShouldEqual, 1)
				So(src.count("board:M"), ShouldEqual, 2)
				So(src.count("board:F"), ShouldEqual, 1)
			})
		})
	})
}

func TestLeaderboardErrors(t *testing.T) {
	Convey("Given a service whose female fetch fails", t, func() {
		src := newFakeSource()
		src.boards[model.Male] = board(model.Male, 500)
		src.boards[model.Female] = board(model.Female, 510)
		src.errs[model.Female] = &analytics.StatusError{Endpoint: analytics.EndpointLeaderboard, StatusCode: 503}
		svc := service.New(src)
		ctx := context.Background()

		Convey("When the combined board is requested", func() {
			res, err := svc.Leaderboard(ctx, model.FilterMixed, 10)

			Convey("Then the whole request should fail", func() {
				So(res, ShouldBeNil)
				So(errors.Is(err, analytics.ErrNetwork), ShouldBeTrue)
			})

			Convey("And the failure should not be cached", func() {
				src.set(func() { delete(src.errs, model.Female) })
				res, err := svc.Leaderboard(ctx, model.FilterMixed, 10)

				So(err, ShouldBeNil)
				So(scores(res.Standings), ShouldResemble, []float64{510, 500})
				So(src.count("board:F"), ShouldEqual, 2)
				So(src.count("board:M"), ShouldEqual, 1)
			})
		})

		Convey("When both sexes fail differently", func() {
			src.set(func() {
				src.errs[model.Male] = fmt.Errorf("%w: bad json", analytics.ErrMalformedResponse)
			})
			_, err := svc.Leaderboard(ctx, model.FilterMixed, 10)

			Convey("Then every cause should be matchable", func() {
				So(errors.Is(err, analytics.ErrMalformedResponse), ShouldBeTrue)
				So(errors.Is(err, analytics.ErrNetwork), ShouldBeTrue)
			})
		})
	})
}

func TestLeaderboardConcurrency(t *testing.T) {
	Convey("Given a slow male fetch", t, func() {
		src := newFakeSource()
		src.boards[model.Male] = board(model.Male, 500, 400)
		gate := make(chan struct{})
		src.gates[model.Male] = gate
		svc := service.New(src)

		Convey("When several callers request it concurrently", func() {
			var wg sync.WaitGroup
			results := make([]*service.LeaderboardResult, 5)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], _ = svc.Leaderboard(context.Background(), model.Filter(model.Male), 10)
				}(i)
			}
			<-src.started
			time.Sleep(50 * time.Millisecond)
			close(gate)
			wg.Wait()

			Convey("Then they should share a single upstream fetch", func() {
				So(src.count("board:M"), ShouldEqual, 1)
				for _, r := range results {
					So(r, ShouldNotBeNil)
					So(scores(r.Standings), ShouldResemble, []float64{500, 400})
				}
			})
		})

		Convey("When callers with different limits request it concurrently", func() {
			var wg sync.WaitGroup
			limits := []int{20, 10, 1, 100}
			results := make([]*service.LeaderboardResult, len(limits))
			for i, limit := range limits {
				wg.Add(1)
				go func(i, limit int) {
					defer wg.Done()
					results[i], _ = svc.Leaderboard(context.Background(), model.Filter(model.Male), limit)
				}(i, limit)
			}
			<-src.started
			time.Sleep(50 * time.Millisecond)
			close(gate)
			wg.Wait()

			Convey("Then a single upstream fetch should serve every limit", func() {
				So(src.count("board:M"), ShouldEqual, 1)
				So(scores(results[0].Standings), ShouldResemble, []float64{500, 400})
				So(scores(results[2].Standings), ShouldResemble, []float64{500})
				So(results[3].Limit, ShouldEqual, 100)
			})
		})

		Convey("When the only waiter gives up", func() {
			ctx, cancel := context.WithCancel(context.Background())
			errCh := make(chan error, 1)
			go func() {
				_, err := svc.Leaderboard(ctx, model.Filter(model.Male), 10)
				errCh <- err
			}()
			<-src.started
			cancel()
			err := <-errCh
			close(gate)
			res, err2 := svc.Leaderboard(context.Background(), model.Filter(model.Male), 10)

			Convey("Then the shared fetch should still complete and be cached", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(err2, ShouldBeNil)
				So(len(res.Standings), ShouldEqual, 2)
				So(src.count("board:M"), ShouldEqual, 1)
			})
		})
	})
}

func TestViewDiscardsStaleSelection(t *testing.T) {
	Convey("Given a leaderboard widget whose male fetch is slow", t, func() {
		src := newFakeSource()
		src.boards[model.Male] = board(model.Male, 500)
		src.boards[model.Female] = board(model.Female, 510, 300)
		gate := make(chan struct{})
		src.gates[model.Male] = gate
		svc := service.New(src)
		view, err := svc.LeaderboardView("table")
		So(err, ShouldBeNil)
		So(view.Current().Status, ShouldEqual, service.StatusIdle)

		Convey("When the selection switches from M to F before M resolves", func() {
			ctx := context.Background()
			staleErr := make(chan error, 1)
			go func() {
				_, err := view.Select(ctx, service.LeaderboardQuery{Filter: model.Filter(model.Male), Limit: 10})
				staleErr <- err
			}()
			<-src.started
			So(view.Current().Status, ShouldEqual, service.StatusLoading)

			snap, err := view.Select(ctx, service.LeaderboardQuery{Filter: model.Filter(model.Female), Limit: 10})
			So(err, ShouldBeNil)
			close(gate)

			Convey("Then the late M response should be discarded", func() {
				So(errors.Is(<-staleErr, service.ErrStale), ShouldBeTrue)
				cur := view.Current()
				So(cur.Status, ShouldEqual, service.StatusReady)
				So(cur.Key.Filter, ShouldEqual, model.Filter(model.Female))
				So(scores(cur.Data.Standings), ShouldResemble, []float64{510, 300})
				So(snap.Data, ShouldEqual, cur.Data)
			})

			Convey("And the widget list should show the committed selection", func() {
				<-staleErr
				widgets := svc.Widgets()
				So(len(widgets), ShouldEqual, 1)
				So(widgets[0].Name, ShouldEqual, "table")
				So(widgets[0].Status, ShouldEqual, service.StatusReady)
				So(widgets[0].Selection, ShouldEqual, "filter=F limit=10")
			})
		})
	})
}

func TestViewStates(t *testing.T) {
	Convey("Given a series widget", t, func() {
		src := newFakeSource()
		src.errs[model.Female] = fmt.Errorf("%w: refused", analytics.ErrNetwork)
		svc := service.New(src, service.WithClock(clock2024))
		view, err := svc.SeriesView("evolution")
		So(err, ShouldBeNil)

		Convey("When the fetch fails", func() {
			snap, err := view.Select(context.Background(), service.SeriesQuery{Sex: model.Female, Group: model.Open})

			Convey("Then the view should be in the error state", func() {
				So(errors.Is(err, analytics.ErrNetwork), ShouldBeTrue)
				So(snap.Status, ShouldEqual, service.StatusError)
				So(view.Current().Err, ShouldNotBeNil)
			})
		})

		Convey("When the fetch returns nothing usable", func() {
			snap, err := view.Select(context.Background(), service.SeriesQuery{Sex: model.Male, Group: model.Open, Window: 3})

			Convey("Then the view should be empty with a placeholder axis", func() {
				So(err, ShouldBeNil)
				So(snap.Status, ShouldEqual, service.StatusEmpty)
				So(snap.Data.Placeholder, ShouldBeTrue)
				So(snap.Data.Axis, ShouldResemble, []int{2021, 2022, 2023, 2024})
			})
		})

		Convey("When widget names are invalid or too many", func() {
			_, err := svc.SeriesView("Bad Name")
			So(errors.Is(err, service.ErrInvalidWidget), ShouldBeTrue)

			small := service.New(src, service.WithMaxViews(1))
			_, err = small.LeaderboardView("a")
			So(err, ShouldBeNil)
			_, err = small.LeaderboardView("a")
			So(err, ShouldBeNil)
			_, err = small.LeaderboardView("b")
			So(errors.Is(err, service.ErrTooManyViews), ShouldBeTrue)
		})
	})
}

func TestSeries(t *testing.T) {
	Convey("Given an evolution payload for men", t, func() {
		src := newFakeSource()
		src.evolutions[model.Male] = series.Raw{
			{Label: "-93", Points: []series.RawPoint{{Year: 2020, Value: 700, Valid: true}, {Year: 2021}, {Year: 2023, Value: 740, Valid: true}}},
			{Label: "nan", Points: []series.RawPoint{{Year: 2020, Value: 1, Valid: true}}},
		}
		svc := service.New(src, service.WithClock(clock2024))
		ctx := context.Background()

		Convey("When requested over a five year window", func() {
			res, err := svc.Series(ctx, model.Male, model.Open, 5)

			Convey("Then it should be normalized against the current year", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, service.StatusReady)
				So(res.Labels(), ShouldResemble, []string{"-93"})
				So(res.Axis, ShouldResemble, []int{2020, 2023})
				So(res.Window, ShouldEqual, 5)
			})

			Convey("And a second window should reuse the cached payload", func() {
				res, err := svc.Series(ctx, model.Male, model.Open, 2)
				So(err, ShouldBeNil)
				So(res.Labels(), ShouldResemble, []string{"-93"})
				So(res.Axis, ShouldResemble, []int{2023})
				So(src.count("series:M"), ShouldEqual, 1)
			})
		})

		Convey("When the window is too large", func() {
			_, err := svc.Series(ctx, model.Male, model.Open, 500)
			So(errors.Is(err, service.ErrInvalidWindow), ShouldBeTrue)
		})

		Convey("When stats are requested after fetching", func() {
			_, _ = svc.Series(ctx, model.Male, model.Junior, 0)
			_, _ = svc.Leaderboard(ctx, model.Filter(model.Male), 0)
			stats := svc.GetStats()

			Convey("Then cache keys should be reported", func() {
				So(stats.Series.Keys, ShouldResemble, []string{"M/Junior"})
				So(stats.Leaderboard.Keys, ShouldResemble, []string{"M"})
				So(stats.Leaderboard.Entries, ShouldEqual, 1)
			})
		})
	})
}
