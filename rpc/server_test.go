package rpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	vaultstate "ricks/core/state"
	"ricks/crypto"
	"ricks/native/vault"
	"ricks/storage"
)

var testSecret = []byte("rpc-test-secret")

type testClock struct {
	mu  sync.Mutex
	now int64
}

func (c *testClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now += int64(d / time.Second)
	c.mu.Unlock()
}

type harness struct {
	server *Server
	vault  *vault.Vault
	clock  *testClock
	alice  *crypto.PrivateKey
	bob    *crypto.PrivateKey
}

func newHarness(t *testing.T, mutate ...func(*Config)) *harness {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	clock := &testClock{now: 1_700_000_000}
	opts := vault.DefaultOptions()
	opts.Now = clock.Now
	v, err := vault.New(vaultstate.NewManager(db), opts)
	require.NoError(t, err)

	cfg := Config{JWTSecret: testSecret, JWTIssuer: "ricks-test", EnableFaucet: true}
	for _, fn := range mutate {
		fn(&cfg)
	}
	srv, err := NewServer(v, nil, nil, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	srv.nowFn = func() time.Time { return time.Unix(clock.Now(), 0) }

	alice, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	bob, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	for _, key := range []*crypto.PrivateKey{alice, bob} {
		require.NoError(t, v.Faucet(context.Background(), key.PubKey().Address().Raw(), big.NewInt(1_000)))
	}
	return &harness{server: srv, vault: v, clock: clock, alice: alice, bob: bob}
}

func (h *harness) signed(t *testing.T, key *crypto.PrivateKey, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	require.NoError(t, SignRequest(req, body, key, time.Unix(h.clock.Now(), 0)))
	return h.do(req)
}

func (h *harness) get(path string) *httptest.ResponseRecorder {
	return h.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	rec := h.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSignedAuctionFlow(t *testing.T) {
	h := newHarness(t)

	rec := h.signed(t, h.alice, "/v1/activate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "inactive", decode[AuctionResult](t, rec).State)

	rec = h.signed(t, h.alice, "/v1/auction/start", AmountRequest{Amount: "100"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "precondition", decode[ErrorResult](t, rec).Class)

	h.clock.advance(24 * time.Hour)
	rec = h.get("/v1/auction")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "5", decode[AuctionResult](t, rec).NextMint)

	rec = h.signed(t, h.alice, "/v1/auction/start", AmountRequest{Amount: "100"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "5", decode[AuctionResult](t, rec).TokenAmount)

	rec = h.get("/v1/auction")
	require.Equal(t, http.StatusOK, rec.Code)
	current := decode[AuctionResult](t, rec)
	require.Equal(t, "100", current.HighestBid)
	require.Equal(t, "105", current.MinNextBid)
	require.False(t, current.Settleable)

	rec = h.signed(t, h.bob, "/v1/auction/bid", AmountRequest{Amount: "104"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "insufficient_value", decode[ErrorResult](t, rec).Class)

	rec = h.signed(t, h.bob, "/v1/auction/bid", AmountRequest{Amount: "105"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.get("/v1/accounts/" + h.alice.PubKey().Address().String())
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1000", decode[BalancesResult](t, rec).Native)

	h.clock.advance(4 * time.Hour)
	rec = h.signed(t, h.alice, "/v1/auction/end", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	settlement := decode[SettlementResult](t, rec)
	require.Equal(t, h.bob.PubKey().Address().String(), settlement.Winner)
	require.Equal(t, "21", settlement.PricePerShare)

	rec = h.get("/v1/price/history")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[PriceHistoryResult](t, rec)
	require.Equal(t, uint64(1), history.Settled)
	require.Contains(t, history.Prices, "21")
}

func TestSignatureChecks(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodPost, "/v1/activate", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	body := []byte(`{"amount":"10"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/staking/stake", bytes.NewReader([]byte(`{"amount":"11"}`)))
	require.NoError(t, SignRequest(req, body, h.alice, time.Unix(h.clock.Now(), 0)))
	require.Equal(t, http.StatusUnauthorized, h.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/activate", nil)
	require.NoError(t, SignRequest(req, nil, h.alice, time.Unix(h.clock.Now()-600, 0)))
	require.Equal(t, http.StatusUnauthorized, h.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/activate", nil)
	require.NoError(t, SignRequest(req, nil, h.alice, time.Unix(h.clock.Now(), 0)))
	replayed := req.Clone(context.Background())
	replayed.Body = http.NoBody
	require.Equal(t, http.StatusOK, h.do(req).Code)
	rec = h.do(replayed)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), errReplayedSignature.Error())
}

func TestReplayIgnoresSignatureEncoding(t *testing.T) {
	h := newHarness(t)
	body := []byte(`{"amount":"10"}`)
	original := httptest.NewRequest(http.MethodPost, "/v1/weth/wrap", bytes.NewReader(body))
	require.NoError(t, SignRequest(original, body, h.alice, time.Unix(h.clock.Now(), 0)))
	sigHex := original.Header.Get(HeaderSignature)
	require.Equal(t, http.StatusOK, h.do(original).Code)

	sig, err := hex.DecodeString(sigHex)
	require.NoError(t, err)
	n := ethcrypto.S256().Params().N
	highS := append([]byte(nil), sig...)
	flipped := new(big.Int).Sub(n, new(big.Int).SetBytes(sig[32:64]))
	flipped.FillBytes(highS[32:64])
	highS[64] ^= 1

	for _, variant := range []string{
		strings.ToUpper(sigHex),
		"0x" + sigHex,
		hex.EncodeToString(highS),
	} {
		req := httptest.NewRequest(http.MethodPost, "/v1/weth/wrap", bytes.NewReader(body))
		req.Header = original.Header.Clone()
		req.Header.Set(HeaderSignature, variant)
		require.Equal(t, http.StatusUnauthorized, h.do(req).Code, variant)
	}

	balances, err := h.vault.Balances(h.alice.PubKey().Address().Raw())
	require.NoError(t, err)
	require.Equal(t, "10", balances.Weth.String())
	require.Equal(t, "990", balances.Native.String())
}

func TestAdminEndpoints(t *testing.T) {
	h := newHarness(t)
	payload := []byte(`{"module":"auction","paused":true}`)
	require.Equal(t, http.StatusOK, h.signed(t, h.alice, "/v1/activate", nil).Code)
	h.clock.advance(24 * time.Hour)

	rec := h.do(httptest.NewRequest(http.MethodPost, "/admin/pause", bytes.NewReader(payload)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := IssueAdminToken(testSecret, "ricks-test", "ops", time.Hour, time.Unix(h.clock.Now(), 0))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/admin/pause", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = h.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.True(t, h.vault.Paused(vault.ModuleAuction))

	rec = h.signed(t, h.alice, "/v1/auction/start", AmountRequest{Amount: "100"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "module paused")

	forged, err := IssueAdminToken([]byte("other"), "ricks-test", "ops", time.Hour, time.Unix(h.clock.Now(), 0))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/admin/faucet", bytes.NewReader(nil))
	req.Header.Set("Authorization", "Bearer "+forged)
	require.Equal(t, http.StatusUnauthorized, h.do(req).Code)

	faucet, err := json.Marshal(FaucetRequest{Address: h.bob.PubKey().Address().String(), Amount: "50"})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/admin/faucet", bytes.NewReader(faucet))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = h.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "1050", decode[BalancesResult](t, rec).Native)
}

func TestFaucetDisabled(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.EnableFaucet = false })
	token, err := IssueAdminToken(testSecret, "ricks-test", "ops", time.Hour, time.Unix(h.clock.Now(), 0))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/admin/faucet", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Authorization", "Bearer "+token)
	require.Equal(t, http.StatusForbidden, h.do(req).Code)
}

func TestBadRequests(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusBadRequest, h.get("/v1/accounts/not-an-address").Code)
	require.Equal(t, http.StatusServiceUnavailable, h.get("/v1/archive/events").Code)

	rec := h.signed(t, h.alice, "/v1/staking/stake", map[string]string{"amount": "ten"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.signed(t, h.alice, "/v1/withdraw", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, func(c *Config) {
		c.RequestsPerSecond = 1
		c.Burst = 1
	})
	require.Equal(t, http.StatusOK, h.get("/v1/auction").Code)
	require.Equal(t, http.StatusTooManyRequests, h.get("/v1/auction").Code)
	require.Equal(t, http.StatusOK, h.get("/healthz").Code)
}

func TestReplayCacheExpires(t *testing.T) {
	cache := newReplayCache()
	now := time.Unix(1_700_000_000, 0)
	require.NoError(t, cache.remember("sig", now.Add(time.Minute), now))
	require.ErrorIs(t, cache.remember("sig", now.Add(time.Minute), now), errReplayedSignature)
	require.NoError(t, cache.remember("other", now.Add(3*time.Minute), now.Add(2*time.Minute)))
	require.Equal(t, 1, cache.size())
}
