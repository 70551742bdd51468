// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package subscriptions streams epoch reports to websocket clients.
package subscriptions

import (
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/pos"
)

var (
	logger = log.WithContext("pkg", "subscriptions")

	metricActiveCount = metrics.LazyLoadGaugeVec("api_active_websocket_count", []string{"subject"})
)

const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second
	// send pings to peer with this period
	pingPeriod = 30 * time.Second
	// reports buffered per connection before new ones are dropped
	connBacklog = 16
)

type Subscriptions struct {
	feed     *Feed
	cache    *messageCache
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates the websocket endpoints. allowedOrigins holds lower case origins, "*" allows any.
func New(feed *Feed, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		feed:  feed,
		cache: newMessageCache(32),
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
		done: make(chan struct{}),
	}
}

func (s *Subscriptions) handleSubscribeEpochs(w http.ResponseWriter, req *http.Request) error {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has replied already
		logger.Debug("websocket upgrade failed", "err", err)
		return nil
	}
	s.wg.Add(1)
	defer s.wg.Done()
	defer conn.Close()

	labels := map[string]string{"subject": "epoch"}
	metricActiveCount().AddWithLabel(1, labels)
	defer metricActiveCount().AddWithLabel(-1, labels)

	ch := make(chan *pos.EpochReport, connBacklog)
	s.feed.Subscribe(ch)
	defer s.feed.Unsubscribe(ch)

	// the read loop only serves control frames and notices the peer going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case report := <-ch:
			msg, _, err := s.cache.GetOrAdd(report)
			if err != nil {
				logger.Warn("failed to encode epoch report", "epoch", report.Epoch, "err", err)
				return nil
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("failed to write epoch report", "err", err)
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		case <-closed:
			return nil
		case <-s.done:
			closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeWait))
			return nil
		}
	}
}

// Close disconnects every subscriber and waits for their handlers to return.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/epoch").
		Methods(http.MethodGet).
		Name("WS /subscriptions/epoch").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEpochs))
}
