// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	require.NoError(t, err)
	assert.Equal(t, "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", addr.String())

	_, err = ParseAddress("7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.NoError(t, err)

	_, err = ParseAddress("1x7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.EqualError(t, err, "invalid prefix")

	_, err = ParseAddress("0x7567")
	assert.EqualError(t, err, "invalid length")
}

func TestAddressCompare(t *testing.T) {
	a := BytesToAddress([]byte{1})
	b := BytesToAddress([]byte{2})

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.True(t, Address{}.IsZero())
	assert.False(t, a.IsZero())
}

func TestAddressJSON(t *testing.T) {
	addr := BytesToAddress([]byte("validator"))

	data, err := json.Marshal(&addr)
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)

	text, err := addr.MarshalText()
	require.NoError(t, err)
	var fromText Address
	require.NoError(t, fromText.UnmarshalText(text))
	assert.Equal(t, addr, fromText)
}

func TestEpoch(t *testing.T) {
	e := Epoch(5)
	assert.Equal(t, Epoch(7), e.Add(2))
	assert.Equal(t, Epoch(0), e.SubFloor(10))
	assert.Equal(t, Epoch(3), e.SubFloor(2))
	assert.Equal(t, e, BytesToEpoch(e.Bytes()))
	assert.Equal(t, "5", e.String())
}
