// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	var lvl slog.LevelVar
	lvl.Set(LevelDebug)
	SetDefault(LogfmtHandlerWithLevel(&buf, &lvl))
	defer SetDefault(DiscardHandler())

	logger := WithContext("pkg", "distributor")
	logger.Info("claimed", "account", "0x01", "amount", 42)

	out := buf.String()
	assert.True(t, strings.Contains(out, "pkg=distributor"))
	assert.True(t, strings.Contains(out, "msg=claimed"))
	assert.True(t, strings.Contains(out, "amount=42"))
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	var lvl slog.LevelVar
	lvl.Set(LevelWarn)
	SetDefault(LogfmtHandlerWithLevel(&buf, &lvl))
	defer SetDefault(DiscardHandler())

	Root().Debug("hidden")
	Root().Warn("shown")

	out := buf.String()
	assert.False(t, strings.Contains(out, "hidden"))
	assert.True(t, strings.Contains(out, "shown"))
}
