// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsRevertErr(t *testing.T) {
	revert := New("range inverted")

	assert.True(t, IsRevertErr(revert))
	assert.True(t, IsRevertErr(errors.Wrap(revert, "claim failed")))
	assert.False(t, IsRevertErr(errors.New("io failure")))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr("not an error"))

	assert.Equal(t, "range inverted", revert.Error())
}
