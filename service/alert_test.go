package service

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func TestShouldAlert(t *testing.T) {
	minToRaise := eth(1000)
	step := eth(500)

	tests := []struct {
		name            string
		raised          *big.Int
		lastAlertRaised *big.Int
		wasMinReached   bool
		want            alertKind
	}{
		{
			name:   "nothing raised",
			raised: big.NewInt(0),
			want:   noAlert,
		},
		{
			name:   "first step",
			raised: eth(500),
			want:   progressAlert,
		},
		{
			name:            "below next step",
			raised:          eth(700),
			lastAlertRaised: eth(500),
			want:            noAlert,
		},
		{
			name:            "minimum reached",
			raised:          eth(1000),
			lastAlertRaised: eth(900),
			want:            minReachedAlert,
		},
		{
			name:            "minimum reported once",
			raised:          eth(1100),
			lastAlertRaised: eth(1000),
			wasMinReached:   true,
			want:            noAlert,
		},
		{
			name:            "step after minimum",
			raised:          eth(1500),
			lastAlertRaised: eth(1000),
			wasMinReached:   true,
			want:            progressAlert,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shouldAlert(tt.raised, tt.lastAlertRaised, minToRaise, step, tt.wasMinReached)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShouldAlertWithoutStep(t *testing.T) {
	assert.Equal(t, noAlert, shouldAlert(eth(5000), nil, nil, nil, false))
	assert.Equal(t, minReachedAlert, shouldAlert(eth(5000), nil, eth(1), big.NewInt(0), false))
}

func TestEthToWei(t *testing.T) {
	wei, err := EthToWei("1.5")
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", wei.String())

	_, err = EthToWei("lots")
	assert.Error(t, err)

	assert.Equal(t, "1.500000", formatBalance(wei))
}

func TestSlackNotifier(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	n := &SlackNotifier{WebhookURL: srv.URL}
	require.NoError(t, n.Notify("hello"))
	assert.Equal(t, "hello", got["text"])
}

func TestSlackNotifierStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := (&SlackNotifier{WebhookURL: srv.URL}).Notify("hello")
	assert.EqualError(t, err, "slack notification failed: 403")

	assert.NoError(t, (&SlackNotifier{}).Notify("nobody listens"))
}
