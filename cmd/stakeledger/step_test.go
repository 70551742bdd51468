// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/pos"
)

type keys struct {
	runes []rune
	block chan struct{}
}

func (k *keys) ReadRune() (rune, error) {
	if len(k.runes) == 0 {
		if k.block != nil {
			<-k.block
		}
		return 0, io.EOF
	}
	r := k.runes[0]
	k.runes = k.runes[1:]
	return r, nil
}

func TestStepper(t *testing.T) {
	s := parseTestScenario(t)
	l, err := pos.New(s.LedgerParams())
	require.NoError(t, err)
	require.NoError(t, s.Genesis(l))

	tests := []struct {
		name    string
		runes   []rune
		wantErr error
		printed bool
	}{
		{"advance", []rune{'\r'}, nil, false},
		{"sets then advance", []rune{'s', ' '}, nil, true},
		{"quit", []rune{'q'}, errStepQuit, false},
		{"quit after sets", []rune{'S', 'Q'}, errStepQuit, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			st := newStepper(&keys{runes: tt.runes}, &out, l)
			err := st.wait(context.Background(), 0)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Contains(t, out.String(), "epoch 0: [enter] advance")
			assert.Equal(t, tt.printed, bytes.Contains(out.Bytes(), []byte("consensus validators")))
		})
	}
}

func TestStepperReadError(t *testing.T) {
	st := newStepper(&keys{}, io.Discard, nil)
	assert.ErrorIs(t, st.wait(context.Background(), 1), io.EOF)
	// the failure sticks
	assert.ErrorIs(t, st.wait(context.Background(), 1), io.EOF)
}

func TestStepperCancel(t *testing.T) {
	block := make(chan struct{})
	k := &keys{block: block}
	st := newStepper(k, io.Discard, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, st.wait(ctx, 1), context.Canceled)
	assert.ErrorIs(t, st.wait(ctx, 2), context.Canceled)

	// a single reader serves every wait and exits once closed
	st.close()
	close(block)
	select {
	case <-st.stopped:
	case <-time.After(time.Second):
		t.Fatal("key reader still running")
	}
}

func TestStepperKeyAfterCancel(t *testing.T) {
	release := make(chan struct{})
	st := newStepper(&gatedKeys{gate: release, runes: []rune{'q'}}, io.Discard, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, st.wait(ctx, 1), context.Canceled)

	// the key pressed after the cancelled wait goes to the next one
	close(release)
	assert.ErrorIs(t, st.wait(context.Background(), 1), errStepQuit)
	st.close()
}

// gatedKeys holds every key press until gate is closed.
type gatedKeys struct {
	gate  chan struct{}
	runes []rune
}

func (k *gatedKeys) ReadRune() (rune, error) {
	<-k.gate
	if len(k.runes) == 0 {
		return 0, io.EOF
	}
	r := k.runes[0]
	k.runes = k.runes[1:]
	return r, nil
}
