package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aqua777/ragpipe/schema"
)

// SplitPushdown separates the filters a backend can evaluate natively
// (plain string equality) from those that need post-filtering. A second
// equality filter on an already claimed field stays in the post-filter
// list so contradictory filters still yield an empty result.
func SplitPushdown(filters []schema.MetadataFilter) (map[string]string, []schema.MetadataFilter) {
	var native map[string]string
	var rest []schema.MetadataFilter
	for _, f := range filters {
		if f.Operator == schema.FilterOpEq {
			if _, isList := listValues(f.Value); !isList {
				if native == nil {
					native = make(map[string]string)
				}
				if _, claimed := native[f.Field]; !claimed {
					native[f.Field] = FilterValueString(f.Value)
					continue
				}
			}
		}
		rest = append(rest, f)
	}
	return native, rest
}

// MatchesFilters reports whether metadata satisfies every filter. A chunk
// lacking a filtered field never matches, whatever the operator.
func MatchesFilters(metadata map[string]string, filters []schema.MetadataFilter) bool {
	for _, f := range filters {
		if !matchesFilter(metadata, f) {
			return false
		}
	}
	return true
}

func matchesFilter(metadata map[string]string, f schema.MetadataFilter) bool {
	metaVal, ok := metadata[f.Field]
	if !ok {
		return false
	}

	switch f.Operator {
	case schema.FilterOpEq:
		return metaVal == FilterValueString(f.Value)
	case schema.FilterOpNe:
		return metaVal != FilterValueString(f.Value)
	case schema.FilterOpGt:
		return compareMeta(metaVal, f.Value) > 0
	case schema.FilterOpGte:
		return compareMeta(metaVal, f.Value) >= 0
	case schema.FilterOpLt:
		return compareMeta(metaVal, f.Value) < 0
	case schema.FilterOpLte:
		return compareMeta(metaVal, f.Value) <= 0
	case schema.FilterOpIn:
		vals, ok := listValues(f.Value)
		if !ok {
			return false
		}
		for _, v := range vals {
			if metaVal == v {
				return true
			}
		}
		return false
	case schema.FilterOpNin:
		vals, ok := listValues(f.Value)
		if !ok {
			return false
		}
		for _, v := range vals {
			if metaVal == v {
				return false
			}
		}
		return true
	}
	return false
}

// FilterValueString renders a filter value the way chunk metadata is
// stored: numbers in their shortest decimal form, everything else via the
// default format.
func FilterValueString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// compareMeta orders a metadata value against a filter value, numerically
// when both sides parse as numbers and lexicographically otherwise.
func compareMeta(metaVal string, filterVal interface{}) int {
	fs := FilterValueString(filterVal)
	mf, errM := strconv.ParseFloat(metaVal, 64)
	ff, errF := strconv.ParseFloat(fs, 64)
	if errM == nil && errF == nil {
		switch {
		case mf < ff:
			return -1
		case mf > ff:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(metaVal, fs)
}

// listValues unpacks a list-typed filter value, as used by in and nin.
func listValues(v interface{}) ([]string, bool) {
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, len(t))
		for i, e := range t {
			out[i] = FilterValueString(e)
		}
		return out, true
	case []string:
		return t, true
	case []int:
		out := make([]string, len(t))
		for i, e := range t {
			out[i] = strconv.Itoa(e)
		}
		return out, true
	case []float64:
		out := make([]string, len(t))
		for i, e := range t {
			out[i] = strconv.FormatFloat(e, 'f', -1, 64)
		}
		return out, true
	default:
		return nil, false
	}
}
