package rpc

import (
	"encoding/json"
	"errors"
	"strconv"
	"vaultd/addr"
	"vaultd/asset"
	"vaultd/convert"
	"vaultd/ledger"
	"vaultd/log"
	"vaultd/mail"
	"vaultd/vault"

	"github.com/valyala/fasthttp"
)

// Serve runs the vault API server until it fails.
func Serve(listen string, svc *vault.Service) {
	defer mail.AlertIfErr()

	s := &server{svc: svc}

	log.Printf("Vault API listening on %s\n", listen)
	if err := fasthttp.ListenAndServe(listen, s.handle); err != nil {
		panic(err)
	}
}

type server struct {
	svc *vault.Service
}

type opRequest struct {
	Account string `json:"account"`
	Asset   string `json:"asset"`
	// Amount is a decimal string in the asset's native precision.
	Amount string `json:"amount"`
}

func (s *server) handle(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/v1/deposit/native":
		s.handleDepositNative(ctx)
	case "/v1/deposit/asset":
		s.handleDepositAsset(ctx)
	case "/v1/withdraw":
		s.handleWithdraw(ctx)
	case "/v1/balance":
		s.handleBalance(ctx)
	case "/v1/status":
		s.handleStatus(ctx)
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not_found")
	}
}

func (s *server) handleDepositNative(ctx *fasthttp.RequestCtx) {
	req, amount, ok := parseOpRequest(ctx, false)
	if !ok {
		return
	}

	if err := s.svc.DepositNative(req.Account, amount); err != nil {
		writeOpError(ctx, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"ok": true})
}

func (s *server) handleDepositAsset(ctx *fasthttp.RequestCtx) {
	req, amount, ok := parseOpRequest(ctx, true)
	if !ok {
		return
	}

	if err := s.svc.DepositAsset(req.Account, req.Asset, amount); err != nil {
		writeOpError(ctx, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"ok": true})
}

func (s *server) handleWithdraw(ctx *fasthttp.RequestCtx) {
	req, amount, ok := parseOpRequest(ctx, true)
	if !ok {
		return
	}

	if err := s.svc.Withdraw(req.Account, req.Asset, amount); err != nil {
		writeOpError(ctx, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"ok": true})
}

func (s *server) handleBalance(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	account := string(ctx.QueryArgs().Peek("account"))
	assetID := string(ctx.QueryArgs().Peek("asset"))

	if !addr.Valid(account) {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid_account")
		return
	}

	if !asset.Known(assetID) {
		writeError(ctx, fasthttp.StatusBadRequest, "unknown_asset")
		return
	}

	balance := s.svc.BalanceOf(account, assetID)

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"account": account,
		"asset":   assetID,
		"balance": strconv.FormatUint(balance, 10),
	})
}

func (s *server) handleStatus(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	limits := s.svc.Limits()

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"total_deposited_value": strconv.FormatUint(s.svc.TotalDepositedValue(), 10),
		"max_total_value":       strconv.FormatUint(limits.MaxTotalValue, 10),
		"max_withdraw_value":    strconv.FormatUint(limits.MaxWithdrawValue, 10),
	})
}

// parseOpRequest decodes and validates a mutating request body.
// needAsset is false on the native deposit path, where the asset field
// must stay empty.
func parseOpRequest(ctx *fasthttp.RequestCtx, needAsset bool) (opRequest, uint64, bool) {
	if !ctx.IsPost() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method_not_allowed")
		return opRequest{}, 0, false
	}

	req := opRequest{}
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid_request")
		return opRequest{}, 0, false
	}

	if !addr.Valid(req.Account) {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid_account")
		return opRequest{}, 0, false
	}

	if needAsset && !asset.Known(req.Asset) {
		writeError(ctx, fasthttp.StatusBadRequest, "unknown_asset")
		return opRequest{}, 0, false
	}

	if !needAsset && req.Asset != "" {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid_request")
		return opRequest{}, 0, false
	}

	amount, err := strconv.ParseUint(req.Amount, 10, 64)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid_amount")
		return opRequest{}, 0, false
	}

	return req, amount, true
}

func writeOpError(ctx *fasthttp.RequestCtx, err error) {
	status, code := errorCode(err)

	if status == fasthttp.StatusInternalServerError {
		log.Error.Printf("Unclassified vault error: %s\n", err)
	}

	writeError(ctx, status, code)
}

// errorCode maps the vault error taxonomy onto HTTP statuses: caller
// mistakes are 400, rejected-but-well-formed operations are 422,
// upstream collaborator failures are 502.
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrZeroAmount):
		return fasthttp.StatusBadRequest, "zero_amount"
	case errors.Is(err, vault.ErrWrongDepositPath):
		return fasthttp.StatusBadRequest, "wrong_deposit_path"
	case errors.Is(err, vault.ErrCapExceeded):
		return fasthttp.StatusUnprocessableEntity, "cap_exceeded"
	case errors.Is(err, vault.ErrLimitExceeded):
		return fasthttp.StatusUnprocessableEntity, "limit_exceeded"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return fasthttp.StatusUnprocessableEntity, "insufficient_balance"
	case errors.Is(err, convert.ErrInvalidOracleReading):
		return fasthttp.StatusBadGateway, "invalid_oracle_reading"
	case errors.Is(err, vault.ErrTransferFailed):
		return fasthttp.StatusBadGateway, "transfer_failed"
	default:
		return fasthttp.StatusInternalServerError, "internal_error"
	}
}

func writeError(ctx *fasthttp.RequestCtx, status int, code string) {
	writeJSON(ctx, status, map[string]interface{}{"ok": false, "error": code})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, payload map[string]interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}

	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
