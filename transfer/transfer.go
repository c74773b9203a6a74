package transfer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
)

const requestTimeout = 20 * time.Second

type request struct {
	Action  string `json:"action"`
	Account string `json:"account"`
	Asset   string `json:"asset"`
	// Amount is a decimal string in the asset's native precision.
	Amount string `json:"amount"`
}

type response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// HTTPBridge moves assets in and out of custody through the settlement
// bridge endpoint. Pull is pre-authorized by the account out-of-band;
// either call reporting failure makes the vault abort and roll back the
// triggering operation.
type HTTPBridge struct {
	url string
}

// NewHTTPBridge returns a bridge client for the given endpoint.
func NewHTTPBridge(url string) *HTTPBridge {
	return &HTTPBridge{url: url}
}

// Pull requests custody of amount of assetID from the account.
func (b *HTTPBridge) Pull(account, assetID string, amount uint64) error {
	return b.do("pull", account, assetID, amount)
}

// Push releases amount of assetID from custody to the account.
func (b *HTTPBridge) Push(account, assetID string, amount uint64) error {
	return b.do("push", account, assetID, amount)
}

func (b *HTTPBridge) do(action, account, assetID string, amount uint64) error {
	body, err := json.Marshal(request{
		Action:  action,
		Account: account,
		Asset:   assetID,
		Amount:  strconv.FormatUint(amount, 10),
	})
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod("POST")
	req.Header.SetContentType("application/json")
	req.SetRequestURI(b.url)
	req.SetBody(body)

	client := &fasthttp.Client{}
	if err := client.DoTimeout(req, resp, requestTimeout); err != nil {
		return err
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("bridge %s returned status %d", action, resp.StatusCode())
	}

	respData := response{}
	if err := json.Unmarshal(resp.Body(), &respData); err != nil {
		return err
	}

	if !respData.OK {
		return fmt.Errorf("bridge %s rejected: %s", action, respData.Error)
	}

	return nil
}
