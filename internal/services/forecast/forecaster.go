package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"TrendPulse/internal/domain/models"
	domsvc "TrendPulse/internal/domain/service"
)

const (
	DefaultLookbackWindow  = 7
	DefaultSmoothingFactor = 0.3
	DefaultHorizonDays     = 7
	DefaultWorkers         = 4

	minObservations = 2
)

// Forecaster extrapolates smoothed view counts per topic. It owns only
// read-only settings, so one instance serves concurrent callers.
type Forecaster struct {
	lookback int
	alpha    float64
	workers  int
}

type Option func(*Forecaster)

// WithLookbackWindow sets how many recent smoothed deltas drive the trend direction.
func WithLookbackWindow(n int) Option {
	return func(f *Forecaster) { f.lookback = n }
}

// WithSmoothingFactor sets alpha, the weight of the newest observation.
func WithSmoothingFactor(alpha float64) Option {
	return func(f *Forecaster) { f.alpha = alpha }
}

// WithWorkers bounds how many topics ForecastAll processes at once.
func WithWorkers(n int) Option {
	return func(f *Forecaster) { f.workers = n }
}

func New(opts ...Option) (*Forecaster, error) {
	f := &Forecaster{
		lookback: DefaultLookbackWindow,
		alpha:    DefaultSmoothingFactor,
		workers:  DefaultWorkers,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.lookback <= 0 {
		return nil, fmt.Errorf("%w: lookback window %d", ErrInvalidConfig, f.lookback)
	}
	if math.IsNaN(f.alpha) || f.alpha <= 0 || f.alpha > 1 {
		return nil, fmt.Errorf("%w: smoothing factor %v", ErrInvalidConfig, f.alpha)
	}
	if f.workers <= 0 {
		f.workers = 1
	}
	return f, nil
}

// Predict forecasts daysAhead days after the last observation. Series must be
// sorted by timestamp. Fewer than two observations yield an empty result and
// no error; malformed input yields ErrMalformedData and a projection outside
// the int64 range yields ErrComputation.
func (f *Forecaster) Predict(series []models.Observation, daysAhead int) ([]models.Prediction, error) {
	if len(series) < minObservations || daysAhead <= 0 {
		return []models.Prediction{}, nil
	}

	values, lastDate, err := prepare(series)
	if err != nil {
		return nil, err
	}

	smoothed := f.Smooth(values)
	period, seasonal := DetectSeasonality(values)
	change := f.recentChange(smoothed)

	upper, lower := ConfidenceBounds(values, smoothed)
	stdRange := upper[len(upper)-1] - lower[len(lower)-1]
	last := smoothed[len(smoothed)-1]

	predictions := make([]models.Prediction, 0, daysAhead)
	for i := 0; i < daysAhead; i++ {
		base, ok := project(last, change, i+1)
		if !ok {
			return nil, fmt.Errorf("%w: trend projection overflows at step %d", ErrComputation, i)
		}

		predicted := max(0, base)
		if seasonal && len(values) >= period {
			anchor := values[len(values)-period]
			factor := float64(values[len(values)-period+i%period]) / float64(max(1, anchor))
			scaled := float64(base) * factor
			switch {
			case math.IsNaN(scaled) || scaled >= math.MaxInt64:
				return nil, fmt.Errorf("%w: seasonal projection %g out of range at step %d", ErrComputation, scaled, i)
			case scaled > 0:
				predicted = int64(scaled)
			default:
				predicted = 0
			}
		}

		// the band is centred on predicted and is never re-fitted to it
		half := float64(stdRange) / 2
		upperBound := float64(predicted) + half
		if upperBound >= math.MaxInt64 {
			return nil, fmt.Errorf("%w: upper bound out of range at step %d", ErrComputation, i)
		}
		predictions = append(predictions, models.Prediction{
			Date:           lastDate.AddDate(0, 0, i+1).Format(models.DateLayout),
			PredictedViews: predicted,
			Confidence:     confidence(i, daysAhead, stdRange, predicted),
			UpperBound:     int64(upperBound),
			LowerBound:     max(0, int64(float64(predicted)-half)),
		})
	}
	return predictions, nil
}

// ForecastAll predicts every topic concurrently. Topics with fewer than two
// observations, bad data or a failed computation are skipped and reported as
// *TopicError; the returned forecast holds only non-empty predictions.
func (f *Forecaster) ForecastAll(ctx context.Context, topics map[string][]models.Observation, daysAhead int) (models.Forecast, []error) {
	var (
		mu      sync.Mutex
		result  = make(models.Forecast, len(topics))
		skipped []*TopicError
	)
	skip := func(topic string, err error) {
		mu.Lock()
		skipped = append(skipped, &TopicError{Topic: topic, Err: err})
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(f.workers)

	for topic, series := range topics {
		if len(series) < minObservations {
			skip(topic, fmt.Errorf("%w: %d observations", ErrInsufficientData, len(series)))
			continue
		}

		topic, series := topic, series
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				skip(topic, err)
				return nil
			}

			predictions, err := f.predictSafe(series, daysAhead)
			if err != nil {
				skip(topic, err)
				return nil
			}
			if len(predictions) == 0 {
				return nil
			}

			mu.Lock()
			result[topic] = predictions
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Topic < skipped[j].Topic })
	errs := make([]error, len(skipped))
	for i, te := range skipped {
		errs[i] = te
	}
	return result, errs
}

func (f *Forecaster) predictSafe(series []models.Observation, daysAhead int) ([]models.Prediction, error) {
	return recoverComputation(func() ([]models.Prediction, error) {
		return f.Predict(series, daysAhead)
	})
}

// recoverComputation turns a panic inside fn into ErrComputation so one
// topic cannot take down a batch.
func recoverComputation(fn func() ([]models.Prediction, error)) (predictions []models.Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			predictions = nil
			err = fmt.Errorf("%w: %v", ErrComputation, r)
		}
	}()
	return fn()
}

// project returns last + change*steps, or false when the result leaves the
// int64 range. steps must be positive.
func project(last, change int64, steps int) (int64, bool) {
	k := int64(steps)
	if change > math.MaxInt64/k || change < math.MinInt64/k {
		return 0, false
	}
	delta := change * k
	if (delta > 0 && last > math.MaxInt64-delta) || (delta < 0 && last < math.MinInt64-delta) {
		return 0, false
	}
	return last + delta, true
}

// recentChange averages the last lookback deltas of the smoothed series,
// truncated toward zero.
func (f *Forecaster) recentChange(smoothed []int64) int64 {
	n := len(smoothed)
	start := max(1, n-f.lookback)
	if start >= n {
		return 0
	}

	var sum int64
	for i := start; i < n; i++ {
		sum += smoothed[i] - smoothed[i-1]
	}
	return sum / int64(n-start)
}

// confidence decays linearly with horizon distance and with the band width
// relative to the prediction. Result is clamped to [0, 100] at 2 decimals.
func confidence(step, horizon int, stdRange, predicted int64) float64 {
	spread := float64(stdRange) / float64(max(1, predicted)) / 4
	c := 100 * (1 - math.Min(1, float64(step)/float64(horizon)+spread))
	return round2(math.Max(0, math.Min(100, c)))
}

// round2 rounds half to even on the exact binary value.
func round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}

func prepare(series []models.Observation) ([]int64, time.Time, error) {
	values := make([]int64, len(series))
	var last time.Time
	for i, o := range series {
		ts, err := time.Parse(models.TimestampLayout, o.Timestamp)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("%w: timestamp %q", ErrMalformedData, o.Timestamp)
		}
		if o.ViewCount < 0 {
			return nil, time.Time{}, fmt.Errorf("%w: negative view count %d at %s", ErrMalformedData, o.ViewCount, o.Timestamp)
		}
		values[i] = o.ViewCount
		last = ts
	}
	return values, last, nil
}

var _ domsvc.Forecaster = (*Forecaster)(nil)
