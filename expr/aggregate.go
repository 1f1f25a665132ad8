package expr

import (
	"github.com/tardisdb/tardis/sql"
)

// Aggregators fold one input value per row; Total yields the group result.

type Aggregator interface {
	Accumulate(v sql.Value) error
	Total() (sql.Value, error)
}

type MakeAggregator func() Aggregator

type keepAggregator struct {
	value sql.Value
	seen  bool
}

func (ka *keepAggregator) Accumulate(v sql.Value) error {
	if !ka.seen {
		ka.value = v
		ka.seen = true
	}
	return nil
}

func (ka *keepAggregator) Total() (sql.Value, error) {
	return ka.value, nil
}

// MakeKeepAggregator carries a grouping key value through unchanged.
func MakeKeepAggregator() Aggregator {
	return &keepAggregator{}
}

type sumAggregator struct {
	sum     sql.Value
	nonNull bool
}

func (sa *sumAggregator) Accumulate(v sql.Value) error {
	if v == nil {
		return nil
	}
	if !sa.nonNull {
		sa.sum = v
		sa.nonNull = true
		return nil
	}
	sum, err := sql.Add(sa.sum, v)
	if err != nil {
		return err
	}
	sa.sum = sum
	return nil
}

func (sa *sumAggregator) Total() (sql.Value, error) {
	if !sa.nonNull {
		return nil, nil
	}
	return sa.sum, nil
}

func MakeSumAggregator() Aggregator {
	return &sumAggregator{}
}

type avgAggregator struct {
	sum   sql.Value
	count int64
	scale uint32
}

func (aa *avgAggregator) Accumulate(v sql.Value) error {
	if v == nil {
		return nil
	}
	// non-numeric input is coerced to NUMERIC before averaging
	if i, ok := v.(sql.Int64Value); ok {
		v = sql.NumericValue{Digits: int64(i) * scalePow(aa.scale), Scale: aa.scale}
	}
	if aa.count == 0 {
		aa.sum = v
		aa.count = 1
		return nil
	}
	sum, err := sql.Add(aa.sum, v)
	if err != nil {
		return err
	}
	aa.sum = sum
	aa.count++
	return nil
}

func scalePow(s uint32) int64 {
	p := int64(1)
	for i := uint32(0); i < s; i++ {
		p *= 10
	}
	return p
}

func (aa *avgAggregator) Total() (sql.Value, error) {
	if aa.count == 0 {
		return nil, nil
	}
	return sql.Divide(aa.sum, sql.Int64Value(aa.count))
}

// MakeAvgAggregator averages at the given numeric scale.
func MakeAvgAggregator(scale uint32) MakeAggregator {
	return func() Aggregator {
		return &avgAggregator{scale: scale}
	}
}

type countAllAggregator struct {
	count int64
}

func (caa *countAllAggregator) Accumulate(v sql.Value) error {
	caa.count += 1
	return nil
}

func (caa *countAllAggregator) Total() (sql.Value, error) {
	return sql.Int64Value(caa.count), nil
}

func MakeCountAllAggregator() Aggregator {
	return &countAllAggregator{}
}

type minAggregator struct {
	min sql.Value
}

func (ma *minAggregator) Accumulate(v sql.Value) error {
	if v == nil {
		return nil
	}
	if ma.min == nil {
		ma.min = v
		return nil
	}
	cmp, err := v.Compare(ma.min)
	if err != nil {
		return err
	}
	if cmp < 0 {
		ma.min = v
	}
	return nil
}

func (ma *minAggregator) Total() (sql.Value, error) {
	return ma.min, nil
}

func MakeMinAggregator() Aggregator {
	return &minAggregator{}
}
