package matchers

import (
	"fmt"
	"reflect"
)

// ItemsInAnyOrder passes for a slice with exactly one item per Matcher, where each Matcher
// matches a different item.
//
//	matchers.ItemsInAnyOrder(matchers.Equal(2), matchers.Equal(6)).Test([]int{6, 2}) // passes
func ItemsInAnyOrder(ms ...Matcher) Matcher {
	return New(
		func(value interface{}) bool {
			v := reflect.ValueOf(value)
			if v.Kind() != reflect.Slice || v.Len() != len(ms) {
				return false
			}
			used := make([]bool, v.Len())
			for _, m := range ms {
				found := false
				for i := 0; i < v.Len() && !found; i++ {
					if !used[i] && m.test(v.Index(i).Interface()) {
						used[i], found = true, true
					}
				}
				if !found {
					return false
				}
			}
			return true
		},
		func(value interface{}) string {
			v := reflect.ValueOf(value)
			switch {
			case v.Kind() != reflect.Slice:
				return "a slice"
			case v.Len() != len(ms):
				return fmt.Sprintf("%d item(s), but there were %d", len(ms), v.Len())
			}
			expectations := make([]string, 0, len(ms))
			for _, m := range ms {
				expectations = append(expectations, m.describe(nil))
			}
			return "items in any order: " + joinExpectations(expectations, ", ")
		},
	)
}

// HasKey passes for a map that has an entry for key.
func HasKey(key interface{}) Matcher {
	return New(
		func(value interface{}) bool {
			v := reflect.ValueOf(value)
			if v.Kind() != reflect.Map || key == nil || !reflect.TypeOf(key).AssignableTo(v.Type().Key()) {
				return false
			}
			return v.MapIndex(reflect.ValueOf(key)).IsValid()
		},
		func(value interface{}) string {
			if reflect.ValueOf(value).Kind() != reflect.Map {
				return "a map"
			}
			return "has key " + Describe(key)
		},
	)
}

// Length derives the number of elements of a slice, array, map, channel or string, or -1 for
// any other value.
func Length() MatcherTransform {
	return Transform("length", func(value interface{}) interface{} {
		v := reflect.ValueOf(value)
		switch v.Kind() {
		case reflect.Array, reflect.Chan, reflect.Map, reflect.Slice, reflect.String:
			return v.Len()
		default:
			return -1
		}
	})
}
