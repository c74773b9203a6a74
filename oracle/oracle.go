package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
	"vaultd/config"
	"vaultd/log"
	"vaultd/mail"

	"github.com/valyala/fasthttp"
)

const rateMethod = "vault_getrate"

const requestTimeout = 20 * time.Second

// Reading is one rate observation from a price oracle endpoint.
type Reading struct {
	// Rate is the native currency price scaled by 10^Precision.
	Rate      int64  `json:"rate"`
	Precision uint   `json:"precision"`
	// Time is the unix second the oracle produced the reading.
	Time uint64 `json:"time"`
}

type rateResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int       `json:"id"`
	Result  *Reading  `json:"result"`
	Error   *rpcError `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var (
	// servers maps oracle urls to the unix time of their last good
	// reading. Unreachable servers are set to -1 until the trace loop
	// sees them again.
	servers map[string]int64
	sLock   sync.Mutex
)

// Source resolves the latest native currency rate from the configured
// oracle endpoints. It implements convert.PriceOracle.
type Source struct {
	maxAge time.Duration
}

// NewSource returns a source that rejects readings older than maxAge.
func NewSource(maxAge time.Duration) *Source {
	return &Source{maxAge: maxAge}
}

// LatestRate returns the current rate and its precision. A reading that
// cannot be fetched or is older than the configured maximum age is an
// error; the caller decides what that means for the operation.
func (s *Source) LatestRate() (int64, uint, error) {
	reading, err := fetchReading()
	if err != nil {
		return 0, 0, err
	}

	age := time.Now().Unix() - int64(reading.Time)
	if age > int64(s.maxAge/time.Second) {
		return 0, 0, fmt.Errorf("oracle reading is stale: age=%ds", age)
	}

	return reading.Rate, reading.Precision, nil
}

// fetchReading tries every candidate server at most once, in random
// order. All servers failing makes the triggering operation fail, it
// does not block and retry the way a sync loop would.
func fetchReading() (Reading, error) {
	for _, url := range candidates() {
		reading, err := getReadingFrom(url)
		if err != nil {
			log.Error.Printf("Oracle server %s unusable: %s\n", url, err)
			serverUnavailable(url)
			continue
		}

		return reading, nil
	}

	PrintServerStatus()
	return Reading{}, errors.New("no oracle server reachable")
}

// candidates returns known-good servers first, in random order, then
// the rest of the configured list as a fallback.
func candidates() []string {
	sLock.Lock()

	good := []string{}
	for url, lastSeen := range servers {
		if lastSeen >= 0 {
			good = append(good, url)
		}
	}

	sLock.Unlock()

	rand.Shuffle(len(good), func(i, j int) {
		good[i], good[j] = good[j], good[i]
	})

	for _, url := range config.GetOracleRPCs() {
		if !contains(good, url) {
			good = append(good, url)
		}
	}

	return good
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func serverUnavailable(url string) {
	sLock.Lock()
	defer sLock.Unlock()

	if servers == nil {
		servers = make(map[string]int64)
	}

	// Incase server changed(e.g., reloaded due to config file change).
	if _, ok := servers[url]; ok {
		servers[url] = -1
	}
}

// PrintServerStatus logs last-seen times of all oracle servers.
func PrintServerStatus() {
	sLock.Lock()
	defer sLock.Unlock()

	for url, lastSeen := range servers {
		log.Printf("%s: last good reading at %d\n", url, lastSeen)
	}
}

// TraceReadings keeps refreshing oracle server availability.
func TraceReadings() {
	defer mail.AlertIfErr()

	for {
		RefreshServers()

		time.Sleep(3 * time.Second)
	}
}

// RefreshServers probes every configured oracle endpoint and records
// which of them currently serve usable readings.
func RefreshServers() {
	urls := config.GetOracleRPCs()

	type probe struct {
		url      string
		lastSeen int64
	}

	c := make(chan probe, len(urls))

	for _, url := range urls {
		go func(url string, c chan<- probe) {
			reading, err := getReadingFrom(url)
			if err != nil {
				c <- probe{url: url, lastSeen: -1}
				return
			}
			c <- probe{url: url, lastSeen: int64(reading.Time)}
		}(url, c)
	}

	probed := make(map[string]int64)
	for range urls {
		p := <-c
		probed[p.url] = p.lastSeen
	}
	close(c)

	sLock.Lock()
	servers = probed
	sLock.Unlock()
}

// getReadingFrom queries one oracle endpoint for its current reading.
func getReadingFrom(url string) (Reading, error) {
	body := rpcRequestBody(rateMethod, []interface{}{})

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod("POST")
	req.Header.SetContentType("application/json")
	req.SetRequestURI(url)
	req.SetBody([]byte(body))

	client := &fasthttp.Client{}
	if err := client.DoTimeout(req, resp, requestTimeout); err != nil {
		return Reading{}, err
	}

	respData := rateResponse{}
	if err := json.Unmarshal(resp.Body(), &respData); err != nil {
		return Reading{}, err
	}

	if respData.Error != nil {
		return Reading{}, fmt.Errorf("oracle rpc error %d: %s", respData.Error.Code, respData.Error.Message)
	}

	if respData.Result == nil {
		return Reading{}, errors.New("oracle rpc returned empty result")
	}

	return *respData.Result, nil
}

// rpcRequestBody builds a JSON-RPC request body. Parameters must be
// integers or strings.
func rpcRequestBody(method string, params []interface{}) string {
	p := ""

	for _, param := range params {
		switch param.(type) {
		case int8, uint8,
			int16, uint16,
			int, uint,
			int32, uint32,
			int64, uint64:
			p += fmt.Sprintf("%d, ", param)
		case string:
			p += fmt.Sprintf("\"%s\", ", param)
		default:
			err := fmt.Errorf("the RPC parameter type must be integer or string. current type=%T, value=%v", param, param)
			panic(err)
		}
	}

	if p != "" {
		p = p[:len(p)-2]
	}

	body := `{
		"jsonrpc": "2.0",
		"method": "` + method + `",
		"params": [
			` + p + `
		],
		"id": 1
	}
	`
	return body
}
