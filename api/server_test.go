package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/livebid/livebid-BE/internal/auction"
	"github.com/livebid/livebid-BE/internal/db"
	"github.com/livebid/livebid-BE/internal/event"
	"github.com/livebid/livebid-BE/internal/hub"
	"github.com/livebid/livebid-BE/internal/util"
	"github.com/livebid/livebid-BE/internal/worker"
	"github.com/peterldowns/testy/check"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeDistributor records queued notification payloads instead of touching
// Redis.
type fakeDistributor struct {
	mu       sync.Mutex
	payloads []*worker.PayloadSendNotification
}

func (d *fakeDistributor) DistributeTaskSendNotification(_ context.Context, payload *worker.PayloadSendNotification, _ ...asynq.Option) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payloads = append(d.payloads, payload)
	return nil
}

func (d *fakeDistributor) queued() []*worker.PayloadSendNotification {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*worker.PayloadSendNotification, len(d.payloads))
	copy(out, d.payloads)
	return out
}

type testServer struct {
	server      *Server
	store       *db.MemStore
	manager     *auction.Manager
	distributor *fakeDistributor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := db.NewMemStore()
	manager := auction.NewManager(store, auction.DefaultConfig())
	sender := event.NewHub()
	broadcaster := hub.NewBroadcaster(sender, store, time.Second)
	t.Cleanup(broadcaster.Shutdown)
	distributor := &fakeDistributor{}

	config := &util.Config{
		AllowedOrigins:      []string{"http://localhost:3000"},
		TokenSecretKey:      "0123456789abcdef0123456789abcdef",
		AccessTokenDuration: time.Minute,
		MinBidIncrement:     1,
	}

	server, err := NewServer(store, manager, broadcaster, sender, distributor, config)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	return &testServer{
		server:      server,
		store:       store,
		manager:     manager,
		distributor: distributor,
	}
}

func (ts *testServer) request(t *testing.T, method, target, accessToken string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	recorder := httptest.NewRecorder()
	ts.server.router.ServeHTTP(recorder, req)
	return recorder
}

func (ts *testServer) connect(t *testing.T, username string) string {
	t.Helper()

	recorder := ts.request(t, http.MethodPost, "/v1/auth/connect", "", gin.H{"username": username})
	check.Equal(t, http.StatusOK, recorder.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode connect response: %v", err)
	}
	check.NotEqual(t, "", resp.AccessToken)
	return resp.AccessToken
}

func (ts *testServer) createAuction(t *testing.T, accessToken string, startingPrice int64, endsIn time.Duration) string {
	t.Helper()

	recorder := ts.request(t, http.MethodPost, "/v1/auctions", accessToken, gin.H{
		"title":          "MS-06 Zaku II",
		"currency":       "USD",
		"starting_price": startingPrice,
		"end_time":       time.Now().Add(endsIn).Format(time.RFC3339),
	})
	check.Equal(t, http.StatusOK, recorder.Code)

	var view hub.AuctionView
	if err := json.Unmarshal(recorder.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return view.ID
}

func TestConnectUser_RejectsBadUsername(t *testing.T) {
	ts := newTestServer(t)

	recorder := ts.request(t, http.MethodPost, "/v1/auth/connect", "", gin.H{"username": "has space"})
	check.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCreateAuction_RequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	recorder := ts.request(t, http.MethodPost, "/v1/auctions", "", gin.H{
		"title":          "unauthorized",
		"currency":       "USD",
		"starting_price": 100,
		"end_time":       time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	check.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestCreateAuction_ValidatesInput(t *testing.T) {
	ts := newTestServer(t)
	accessToken := ts.connect(t, "seller")

	recorder := ts.request(t, http.MethodPost, "/v1/auctions", accessToken, gin.H{
		"title":          "free stuff",
		"currency":       "dollars",
		"starting_price": 100,
		"end_time":       time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	check.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestPlaceBid_FullFlow(t *testing.T) {
	ts := newTestServer(t)
	seller := ts.connect(t, "seller")
	alice := ts.connect(t, "alice")
	auctionID := ts.createAuction(t, seller, 100, time.Hour)

	recorder := ts.request(t, http.MethodPost, fmt.Sprintf("/v1/auctions/%s/bids", auctionID), alice, gin.H{"amount": 100})
	check.Equal(t, http.StatusOK, recorder.Code)

	var resp placeBidResponse
	check.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	check.True(t, resp.Success)
	check.False(t, resp.Extended)

	// Too-low rejections carry the minimum acceptable amount.
	recorder = ts.request(t, http.MethodPost, fmt.Sprintf("/v1/auctions/%s/bids", auctionID), alice, gin.H{"amount": 100})
	check.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

	var tooLow struct {
		MinAmount int64 `json:"min_amount"`
	}
	check.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &tooLow))
	check.Equal(t, int64(101), tooLow.MinAmount)
}

func TestPlaceBid_UnknownAuction(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.connect(t, "alice")

	recorder := ts.request(t, http.MethodPost, "/v1/auctions/7b0f9a4e-59cd-4be5-bb2d-1f6b1a9f3f10/bids", alice, gin.H{"amount": 100})
	check.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = ts.request(t, http.MethodPost, "/v1/auctions/not-a-uuid/bids", alice, gin.H{"amount": 100})
	check.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestPlaceBid_ScheduledAuction(t *testing.T) {
	ts := newTestServer(t)
	seller := ts.connect(t, "seller")
	alice := ts.connect(t, "alice")

	recorder := ts.request(t, http.MethodPost, "/v1/auctions", seller, gin.H{
		"title":          "future drop",
		"currency":       "USD",
		"starting_price": 100,
		"start_time":     time.Now().Add(time.Hour).Format(time.RFC3339),
		"end_time":       time.Now().Add(2 * time.Hour).Format(time.RFC3339),
	})
	check.Equal(t, http.StatusOK, recorder.Code)
	var created hub.AuctionView
	check.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	check.Equal(t, db.AuctionStatusScheduled, created.Status)

	recorder = ts.request(t, http.MethodPost, fmt.Sprintf("/v1/auctions/%s/bids", created.ID), alice, gin.H{"amount": 200})
	check.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
}

func TestPlaceBid_QueuesOutbidNotification(t *testing.T) {
	ts := newTestServer(t)
	seller := ts.connect(t, "seller")
	alice := ts.connect(t, "alice")
	bob := ts.connect(t, "bob")
	auctionID := ts.createAuction(t, seller, 100, time.Hour)

	recorder := ts.request(t, http.MethodPost, fmt.Sprintf("/v1/auctions/%s/bids", auctionID), alice, gin.H{"amount": 100})
	check.Equal(t, http.StatusOK, recorder.Code)
	recorder = ts.request(t, http.MethodPost, fmt.Sprintf("/v1/auctions/%s/bids", auctionID), bob, gin.H{"amount": 150})
	check.Equal(t, http.StatusOK, recorder.Code)

	// The fan-out runs off the request path.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(ts.distributor.queued()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	queued := ts.distributor.queued()
	if len(queued) != 1 {
		t.Fatalf("expected 1 queued notification, got %d", len(queued))
	}
	check.Equal(t, "alice", queued[0].RecipientID)
	check.Equal(t, "auction_outbid", queued[0].Type)
}

func TestListAuctions_GroupsByState(t *testing.T) {
	ts := newTestServer(t)
	seller := ts.connect(t, "seller")
	ts.createAuction(t, seller, 100, time.Hour)

	recorder := ts.request(t, http.MethodGet, "/v1/auctions", "", nil)
	check.Equal(t, http.StatusOK, recorder.Code)

	var resp struct {
		Active    []json.RawMessage `json:"active"`
		Scheduled []json.RawMessage `json:"scheduled"`
		Ended     []json.RawMessage `json:"ended"`
	}
	check.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	check.Equal(t, 1, len(resp.Active))
	check.Equal(t, 0, len(resp.Scheduled))
	check.Equal(t, 0, len(resp.Ended))
}

func TestGetAuction_NotFound(t *testing.T) {
	ts := newTestServer(t)

	recorder := ts.request(t, http.MethodGet, "/v1/auctions/7b0f9a4e-59cd-4be5-bb2d-1f6b1a9f3f10", "", nil)
	check.Equal(t, http.StatusNotFound, recorder.Code)
}
