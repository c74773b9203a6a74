package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
	"vaultd/addr"
	"vaultd/asset"
	"vaultd/convert"
	"vaultd/ledger"
	"vaultd/log"
	"vaultd/vault"

	"github.com/valyala/fasthttp"
)

func TestMain(m *testing.M) {
	log.Init()
	code := m.Run()
	os.Remove("vaultd-error.log")
	os.Exit(code)
}

type fakeOracle struct {
	rate int64
}

func (o *fakeOracle) LatestRate() (int64, uint, error) {
	return o.rate, 0, nil
}

type stubBridge struct {
	failPush bool
}

func (b *stubBridge) Pull(account, assetID string, amount uint64) error {
	return nil
}

func (b *stubBridge) Push(account, assetID string, amount uint64) error {
	if b.failPush {
		return errors.New("bridge push rejected")
	}
	return nil
}

func newTestServer() (*server, *stubBridge) {
	asset.Load([]string{"token-x"})

	bridge := &stubBridge{}
	svc := vault.New(
		ledger.New(),
		convert.New(&fakeOracle{rate: 2000}),
		bridge,
		nil,
		vault.Limits{MaxTotalValue: 1000000000, MaxWithdrawValue: 500000000},
	)

	return &server{svc: svc}, bridge
}

func doRequest(s *server, method, uri, body string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if body != "" {
		req.Header.SetContentType("application/json")
		req.SetBody([]byte(body))
	}

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)

	s.handle(ctx)
	return ctx
}

func decodeBody(t *testing.T, ctx *fasthttp.RequestCtx) map[string]interface{} {
	payload := map[string]interface{}{}
	if err := json.Unmarshal(ctx.Response.Body(), &payload); err != nil {
		t.Fatalf("response is not json: %v", err)
	}
	return payload
}

func testAccount() string {
	return addr.FromPayload(bytes.Repeat([]byte{0x11}, 20))
}

func TestDepositAndBalance(t *testing.T) {
	s, _ := newTestServer()
	account := testAccount()

	body := fmt.Sprintf(`{"account": "%s", "asset": "token-x", "amount": "1000000000000000000"}`, account)
	ctx := doRequest(s, "POST", "http://vault/v1/deposit/asset", body)

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("deposit: want 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	uri := fmt.Sprintf("http://vault/v1/balance?account=%s&asset=token-x", account)
	ctx = doRequest(s, "GET", uri, "")

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("balance: want 200, got %d", ctx.Response.StatusCode())
	}

	payload := decodeBody(t, ctx)
	if payload["balance"] != "1000000000000000000" {
		t.Errorf("want balance 1000000000000000000, got %v", payload["balance"])
	}
}

func TestRejectsBadRequests(t *testing.T) {
	s, _ := newTestServer()
	account := testAccount()

	cases := []struct {
		name       string
		uri        string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			"invalid account",
			"http://vault/v1/deposit/asset",
			`{"account": "nonsense", "asset": "token-x", "amount": "10"}`,
			fasthttp.StatusBadRequest, "invalid_account",
		},
		{
			"unknown asset",
			"http://vault/v1/deposit/asset",
			fmt.Sprintf(`{"account": "%s", "asset": "token-y", "amount": "10"}`, account),
			fasthttp.StatusBadRequest, "unknown_asset",
		},
		{
			"native asset on asset path",
			"http://vault/v1/deposit/asset",
			fmt.Sprintf(`{"account": "%s", "asset": "native", "amount": "10"}`, account),
			fasthttp.StatusBadRequest, "wrong_deposit_path",
		},
		{
			"zero amount",
			"http://vault/v1/deposit/native",
			fmt.Sprintf(`{"account": "%s", "amount": "0"}`, account),
			fasthttp.StatusBadRequest, "zero_amount",
		},
		{
			"negative amount",
			"http://vault/v1/deposit/native",
			fmt.Sprintf(`{"account": "%s", "amount": "-5"}`, account),
			fasthttp.StatusBadRequest, "invalid_amount",
		},
		{
			"withdraw more than balance",
			"http://vault/v1/withdraw",
			fmt.Sprintf(`{"account": "%s", "asset": "token-x", "amount": "10"}`, account),
			fasthttp.StatusUnprocessableEntity, "insufficient_balance",
		},
	}

	for _, c := range cases {
		ctx := doRequest(s, "POST", c.uri, c.body)

		if ctx.Response.StatusCode() != c.wantStatus {
			t.Errorf("%s: want status %d, got %d", c.name, c.wantStatus, ctx.Response.StatusCode())
			continue
		}

		payload := decodeBody(t, ctx)
		if payload["error"] != c.wantCode {
			t.Errorf("%s: want error %q, got %v", c.name, c.wantCode, payload["error"])
		}
	}
}

func TestTransferFailureReported(t *testing.T) {
	s, bridge := newTestServer()
	account := testAccount()

	body := fmt.Sprintf(`{"account": "%s", "asset": "token-x", "amount": "1000000000000000000"}`, account)
	if ctx := doRequest(s, "POST", "http://vault/v1/deposit/asset", body); ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("deposit failed: %s", ctx.Response.Body())
	}

	bridge.failPush = true

	body = fmt.Sprintf(`{"account": "%s", "asset": "token-x", "amount": "1000000000000000000"}`, account)
	ctx := doRequest(s, "POST", "http://vault/v1/withdraw", body)

	if ctx.Response.StatusCode() != fasthttp.StatusBadGateway {
		t.Fatalf("want 502, got %d", ctx.Response.StatusCode())
	}

	payload := decodeBody(t, ctx)
	if payload["error"] != "transfer_failed" {
		t.Errorf("want transfer_failed, got %v", payload["error"])
	}

	// The balance survived the failed withdrawal.
	uri := fmt.Sprintf("http://vault/v1/balance?account=%s&asset=token-x", account)
	ctx = doRequest(s, "GET", uri, "")

	if got := decodeBody(t, ctx)["balance"]; got != "1000000000000000000" {
		t.Errorf("want untouched balance, got %v", got)
	}
}

func TestStatus(t *testing.T) {
	s, _ := newTestServer()

	ctx := doRequest(s, "GET", "http://vault/v1/status", "")

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("want 200, got %d", ctx.Response.StatusCode())
	}

	payload := decodeBody(t, ctx)
	if payload["max_total_value"] != "1000000000" {
		t.Errorf("want max_total_value 1000000000, got %v", payload["max_total_value"])
	}
	if payload["max_withdraw_value"] != "500000000" {
		t.Errorf("want max_withdraw_value 500000000, got %v", payload["max_withdraw_value"])
	}
	if payload["total_deposited_value"] != "0" {
		t.Errorf("want total 0, got %v", payload["total_deposited_value"])
	}
}
