package helpers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type settings struct {
	name  string
	count int
}

type settingsOption ConfigOption[settings]

func withName(name string) settingsOption {
	return ConfigOptionFunc[settings](func(s *settings) error {
		s.name = name
		return nil
	})
}

func withCount(count int) settingsOption {
	return ConfigOptionFunc[settings](func(s *settings) error {
		if count < 0 {
			return errors.New("negative count")
		}
		s.count = count
		return nil
	})
}

func TestApplyOptions(t *testing.T) {
	var s settings
	assert.NoError(t, ApplyOptions(&s, withName("a"), withCount(2), withName("b")))
	assert.Equal(t, settings{name: "b", count: 2}, s)
}

func TestApplyOptionsStopsAtFirstError(t *testing.T) {
	var s settings
	err := ApplyOptions(&s, withCount(-1), withName("a"))
	assert.EqualError(t, err, "negative count")
	assert.Equal(t, settings{}, s)
}

func TestApplyNoOptions(t *testing.T) {
	s := settings{name: "x"}
	assert.NoError(t, ApplyOptions[settings, settingsOption](&s))
	assert.Equal(t, "x", s.name)
}
