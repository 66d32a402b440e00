package columnfamily

import (
	"github.com/wcstore/wcstore/internal/aggregate"
	"github.com/wcstore/wcstore/internal/filter"
)

// GetWithFilter is Get, additionally requiring the decided version to
// satisfy fs (its timestamp range and the column's registered Filter).
func (cf *ColumnFamily) GetWithFilter(row, column []byte, fs filter.Set) ([]byte, bool) {
	ts, v, ok := cf.getLatestWithTimestamp(row, column)
	if !ok || !v.IsPut() {
		return nil, false
	}
	if !fs.Keep(column, ts, v.Bytes) {
		return nil, false
	}
	return v.Bytes, true
}

// ScanRowWithFilter is ScanRowVersions with every version required to
// satisfy fs; fs.MaxVersions, if set, caps each column's surviving list.
func (cf *ColumnFamily) ScanRowWithFilter(row []byte, fs filter.Set) map[string][]VersionedValue {
	raw := cf.ScanRowVersions(row, -1)
	out := make(map[string][]VersionedValue, len(raw))
	for column, vv := range raw {
		var kept []VersionedValue
		for _, v := range vv {
			if fs.Keep([]byte(column), v.Timestamp, v.Value) {
				kept = append(kept, v)
			}
		}
		if fs.MaxVersions != nil {
			kept = truncate(kept, *fs.MaxVersions)
		}
		if len(kept) > 0 {
			out[column] = kept
		}
	}
	return out
}

// ScanWithFilter applies ScanRowWithFilter to every row in [startRow,
// endRow], omitting rows with no surviving columns.
func (cf *ColumnFamily) ScanWithFilter(startRow, endRow []byte, fs filter.Set) map[string]map[string][]VersionedValue {
	out := make(map[string]map[string][]VersionedValue)
	for _, row := range cf.RowKeysInRange(startRow, endRow) {
		rowResult := cf.ScanRowWithFilter(row, fs)
		if len(rowResult) > 0 {
			out[string(row)] = rowResult
		}
	}
	return out
}

// Aggregate reduces every live version of (row, column) with kind.
func (cf *ColumnFamily) Aggregate(row, column []byte, kind aggregate.Kind) aggregate.Result {
	vv := livePutsDesc(cf.collectVersions(row, column), nil)
	return aggregate.Apply(kind, toAggregateVersions(vv))
}

// AggregateRange is Aggregate restricted to start <= ts <= end.
func (cf *ColumnFamily) AggregateRange(row, column []byte, kind aggregate.Kind, start, end uint64) aggregate.Result {
	rng := &TimeRange{Start: start, End: end}
	vv := livePutsDesc(cf.collectVersions(row, column), rng)
	return aggregate.Apply(kind, toAggregateVersions(vv))
}

func toAggregateVersions(vv []VersionedValue) []aggregate.Version {
	out := make([]aggregate.Version, len(vv))
	for i, v := range vv {
		out[i] = aggregate.Version{Timestamp: v.Timestamp, Value: v.Value}
	}
	return out
}
