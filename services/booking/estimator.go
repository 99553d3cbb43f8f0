package booking

import (
	"math/rand"
	"sync"
	"time"

	"autoshop/models"
)

// Estimator predicts labor hours for a repair.
type Estimator interface {
	EstimateHours(vehicle *models.VehicleInfo) float64
}

// NaiveEstimator is a placeholder policy: it ignores the vehicle and draws hours uniformly
// from [MinHours, MaxHours], rounded to one decimal.
type NaiveEstimator struct {
	MinHours float64
	MaxHours float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewNaiveEstimator(src rand.Source) *NaiveEstimator {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &NaiveEstimator{MinHours: 1.0, MaxHours: 3.0, rng: rand.New(src)}
}

func (e *NaiveEstimator) EstimateHours(_ *models.VehicleInfo) float64 {
	e.mu.Lock()
	f := e.rng.Float64()
	e.mu.Unlock()
	return RoundHours(e.MinHours + f*(e.MaxHours-e.MinHours))
}

// FixedEstimator always returns the same number of hours.
type FixedEstimator float64

func (f FixedEstimator) EstimateHours(_ *models.VehicleInfo) float64 {
	return RoundHours(float64(f))
}
