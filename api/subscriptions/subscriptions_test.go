// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/pos"
	"github.com/vechain/stakeledger/pos/valset"
	"github.com/vechain/stakeledger/thor"
)

func newServer(t *testing.T, origins []string) (*httptest.Server, *Feed, *Subscriptions) {
	feed := NewFeed()
	subs := New(feed, origins)
	router := mux.NewRouter()
	subs.Mount(router, "/subscriptions")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, feed, subs
}

func wsURL(ts *httptest.Server) string {
	u := url.URL{Scheme: "ws", Host: strings.TrimPrefix(ts.URL, "http://"), Path: "/subscriptions/epoch"}
	return u.String()
}

func dial(t *testing.T, ts *httptest.Server, feed *Feed, header http.Header) *websocket.Conn {
	subscribed := feed.listenerCount()
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool { return feed.listenerCount() == subscribed+1 }, time.Second, 5*time.Millisecond)
	return conn
}

func TestSubscribeEpochs(t *testing.T) {
	ts, feed, subs := newServer(t, []string{"*"})
	defer subs.Close()

	conn1 := dial(t, ts, feed, nil)
	conn2 := dial(t, ts, feed, nil)

	report := &pos.EpochReport{
		Epoch:       7,
		Distributed: 1000,
		Update:      []valset.Update{{Address: thor.BytesToAddress([]byte("val1")), Power: 700}},
	}
	assert.Equal(t, 2, feed.Publish(report))

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)

		var got pos.EpochReport
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.Equal(t, report.Epoch, got.Epoch)
		assert.Equal(t, report.Distributed, got.Distributed)
		assert.Equal(t, report.Update, got.Update)
	}

	// the peer going away unsubscribes it
	conn1.Close()
	require.Eventually(t, func() bool { return feed.listenerCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestSubscribeOrigins(t *testing.T) {
	ts, feed, subs := newServer(t, []string{"https://explorer.example"})
	defer subs.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), http.Header{"Origin": {"https://evil.example"}})
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	dial(t, ts, feed, http.Header{"Origin": {"https://explorer.example"}})
}

func TestSubscribeNotWebsocket(t *testing.T) {
	ts, _, subs := newServer(t, []string{"*"})
	defer subs.Close()

	res, err := http.Get(ts.URL + "/subscriptions/epoch")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestClose(t *testing.T) {
	ts, feed, subs := newServer(t, []string{"*"})
	conn := dial(t, ts, feed, nil)

	subs.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), err)
	assert.Equal(t, 0, feed.listenerCount())
}
