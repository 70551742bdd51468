// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/mattn/go-tty"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/pos"
	"github.com/vechain/stakeledger/thor"
)

var errStepQuit = errors.New("quit on user request")

// runeReader reads one key press.
type runeReader interface {
	ReadRune() (rune, error)
}

// stepper pauses before each epoch advance until a key is pressed. 'q' stops the run and 's'
// prints the sets of the closing epoch first. One goroutine reads keys for the stepper's whole
// life, so a wait given up on cancellation leaves no reader behind.
type stepper struct {
	keys   runeReader
	out    io.Writer
	reader pos.Reader

	once    sync.Once
	pressed chan rune
	done    chan struct{}
	stopped chan struct{}
	readErr error
}

func newStepper(keys runeReader, out io.Writer, reader pos.Reader) *stepper {
	return &stepper{
		keys:    keys,
		out:     out,
		reader:  reader,
		pressed: make(chan rune),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func newTTYStepper(out io.Writer, reader pos.Reader) (*stepper, func() error, error) {
	t, err := tty.Open()
	if err != nil {
		return nil, nil, errors.Wrap(err, "open tty")
	}
	s := newStepper(t, out, reader)
	return s, func() error {
		s.close()
		return t.Close()
	}, nil
}

// readKeys forwards key presses until a read fails or the stepper is closed.
func (s *stepper) readKeys() {
	defer close(s.stopped)
	for {
		r, err := s.keys.ReadRune()
		if err != nil {
			s.readErr = err
			return
		}
		select {
		case s.pressed <- r:
		case <-s.done:
			return
		}
	}
}

// close stops the key reader once its pending read returns.
func (s *stepper) close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *stepper) wait(ctx context.Context, closing thor.Epoch) error {
	s.once.Do(func() { go s.readKeys() })

	for {
		fmt.Fprintf(s.out, "epoch %d: [enter] advance, [s] sets, [q] quit ", closing)

		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return ctx.Err()
		case <-s.stopped:
			if s.readErr == nil {
				return errStepQuit
			}
			return errors.Wrap(s.readErr, "read key")
		case r := <-s.pressed:
			fmt.Fprintln(s.out)
			switch r {
			case 'q', 'Q':
				return errStepQuit
			case 's', 'S':
				printSets(s.out, s.reader, closing)
			default:
				return nil
			}
		}
	}
}
