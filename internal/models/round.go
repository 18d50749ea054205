package models

// RoundStatus is the lifecycle phase of a round relative to the clock.
// Transitions are pending -> active -> completed and never regress.
type RoundStatus string

const (
	StatusPending   RoundStatus = "pending"
	StatusActive    RoundStatus = "active"
	StatusCompleted RoundStatus = "completed"
)

// Round is a fixed-length betting window. StartPrice and EndPrice are
// recorded write-once from observation; EndPrice and Result stay nil until
// the round completes. TotalPool always equals UpPool + DownPool.
type Round struct {
	ID         int64       `json:"id"`
	StartTick  int64       `json:"start_tick"`
	EndTick    int64       `json:"end_tick"`
	StartPrice *float64    `json:"start_price"`
	EndPrice   *float64    `json:"end_price"`
	Result     *Direction  `json:"result"`
	TotalPool  float64     `json:"total_pool"`
	UpPool     float64     `json:"up_pool"`
	DownPool   float64     `json:"down_pool"`
	Status     RoundStatus `json:"status"`
}

// Pool returns the pool on the given side.
func (r *Round) Pool(d Direction) float64 {
	if d == DirectionUp {
		return r.UpPool
	}
	return r.DownPool
}

// PricePoint is one sample of the price history, ordered by AtTick.
// Display-only; settlement uses the round store's recorded prices.
type PricePoint struct {
	Value  float64 `json:"value"`
	AtTick int64   `json:"at_tick"`
}
