package oracle

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRPCRequestBody(t *testing.T) {
	body := rpcRequestBody("vault_getrate", []interface{}{})

	if !strings.Contains(body, `"method": "vault_getrate"`) {
		t.Errorf("body is missing the method: %s", body)
	}

	payload := map[string]interface{}{}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("body is not valid json: %v", err)
	}

	body = rpcRequestBody("vault_getrate", []interface{}{"base", 42})
	if !strings.Contains(body, `"base", 42`) {
		t.Errorf("params are not rendered: %s", body)
	}
}

func TestRateResponseParsing(t *testing.T) {
	raw := `{"jsonrpc": "2.0", "id": 1, "result": {"rate": 200000000000, "precision": 8, "time": 1756400000}}`

	resp := rateResponse{}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatal(err)
	}

	if resp.Result == nil {
		t.Fatal("result should be set")
	}
	if resp.Result.Rate != 200000000000 {
		t.Errorf("want rate 200000000000, got %d", resp.Result.Rate)
	}
	if resp.Result.Precision != 8 {
		t.Errorf("want precision 8, got %d", resp.Result.Precision)
	}

	raw = `{"jsonrpc": "2.0", "id": 1, "error": {"code": -32601, "message": "method not found"}}`

	resp = rateResponse{}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatal(err)
	}

	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Errorf("rpc error should be parsed, got %+v", resp.Error)
	}
}
