// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStackedMap(t *testing.T) {
	src := map[string]string{"foo": "bar"}
	sm := New(func(key any) (any, bool, error) {
		v, ok := src[key.(string)]
		return v, ok, nil
	})

	v, ok, err := sm.Get("foo")
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bar", v)

	d0 := sm.Push()
	sm.Put("foo", "baz")
	v, ok, _ = sm.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, "baz", v)

	sm.Push()
	sm.Put("foo", "qux")
	sm.Put("k", "v")
	v, _, _ = sm.Get("foo")
	assert.Equal(t, "qux", v)

	sm.Pop()
	v, _, _ = sm.Get("foo")
	assert.Equal(t, "baz", v)
	_, ok, _ = sm.Get("k")
	assert.False(t, ok)

	sm.PopTo(d0)
	assert.Equal(t, 0, sm.Depth())
	v, _, _ = sm.Get("foo")
	assert.Equal(t, "bar", v)
}

func TestJournal(t *testing.T) {
	sm := New(func(key any) (any, bool, error) {
		return nil, false, nil
	})

	sm.Push()
	sm.Put("a", 1)
	sm.Push()
	sm.Put("b", 2)
	sm.Put("a", 3)

	var got []any
	sm.Journal(func(key, value any) bool {
		got = append(got, key, value)
		return true
	})
	assert.Equal(t, []any{"a", 1, "b", 2, "a", 3}, got)

	// early stop
	n := 0
	sm.Journal(func(key, value any) bool {
		n++
		return false
	})
	assert.Equal(t, 1, n)
}
