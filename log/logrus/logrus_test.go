package logrus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/cachekit"
)

func TestLogrusLoggerFieldsAndWith(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)

	l := New(base).With(cachekit.Fields{"table": "CacheItems"})
	l.Warn("slow sweep", cachekit.Fields{"removed": 10})
	l.Debug("tick", nil)

	require.Len(t, hook.AllEntries(), 2)
	e := hook.AllEntries()[0]
	assert.Equal(t, logrus.WarnLevel, e.Level)
	assert.Equal(t, "slow sweep", e.Message)
	assert.Equal(t, logrus.Fields{"table": "CacheItems", "removed": 10}, e.Data)

	last := hook.LastEntry()
	assert.Equal(t, logrus.DebugLevel, last.Level)
	assert.Equal(t, logrus.Fields{"table": "CacheItems"}, last.Data)
}
