package gift

import (
	"context"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"

	"github.com/giftify/giftapi/common"
	"github.com/giftify/giftapi/common/model"
	"github.com/giftify/giftapi/store"
)

// amountError is returned locally for non-positive amounts; the request
// never reaches the network.
var amountError = common.ValidationError{Field: "amount", Reason: "must be positive"}

// GetWallet returns the points balance from the query store, fetching
// GET /api/v2/wallet/balance when stale.
func (s *giftService) GetWallet(ctx context.Context, token *oauth2.Token) (model.Wallet, error) {
	return store.Fetch(ctx, s.store, KeyWallet, func(ctx context.Context) (model.Wallet, error) {
		var wallet model.Wallet
		err := s.client.GetJSONFresh(ctx, "api/v2/wallet/balance", &wallet, token, nil)
		return wallet, err
	})
}

// GetWalletHistory fetches the transaction ledger. The backend serializes
// a raw Spring Data page; it is mapped here into the normalized
// PagedResult shape (hasNext = !last, hasPrevious = !first).
func (s *giftService) GetWalletHistory(ctx context.Context, token *oauth2.Token, txType model.TransactionType, page, size int) (model.PagedResult[model.WalletTransaction], error) {
	params := map[string]string{}
	if txType != "" {
		params["type"] = string(txType)
	}
	if page >= 0 {
		params["page"] = strconv.Itoa(page)
	}
	if size > 0 {
		params["size"] = strconv.Itoa(size)
	}

	var raw model.SpringPage[model.WalletTransaction]
	if err := s.client.GetJSONFresh(ctx, "api/v2/wallet/history", &raw, token, params); err != nil {
		return model.PagedResult[model.WalletTransaction]{}, err
	}
	return model.MapSpringPage(raw), nil
}

// ChargeWallet tops up the balance, bumping the cached wallet before
// POST /api/v2/wallet/charge resolves. A failure rolls the balance back.
func (s *giftService) ChargeWallet(ctx context.Context, token *oauth2.Token, amount int64) error {
	if amount <= 0 {
		return &amountError
	}
	mut := store.Mutation[model.Wallet]{
		Store: s.store,
		Key:   KeyWallet,
		Transform: func(wallet model.Wallet) model.Wallet {
			wallet.Balance += amount
			return wallet
		},
		Call: func(ctx context.Context) (*model.Wallet, error) {
			body, err := jsonBody(model.WalletChargeRequest{Amount: amount})
			if err != nil {
				return nil, err
			}
			data, err := s.client.PostJSON(ctx, "api/v2/wallet/charge", token, body, http.StatusOK, http.StatusCreated)
			if err != nil {
				return nil, err
			}
			return parseOptional[model.Wallet](data)
		},
	}
	return mut.Run(ctx)
}

// WithdrawWallet moves points out of the wallet. The cached balance drops
// optimistically and reconciles against the confirmed balance.
func (s *giftService) WithdrawWallet(ctx context.Context, token *oauth2.Token, amount int64) (*model.WalletWithdrawResponse, error) {
	if amount <= 0 {
		return nil, &amountError
	}
	var resp *model.WalletWithdrawResponse
	mut := store.Mutation[model.Wallet]{
		Store: s.store,
		Key:   KeyWallet,
		Transform: func(wallet model.Wallet) model.Wallet {
			wallet.Balance -= amount
			return wallet
		},
		Call: func(ctx context.Context) (*model.Wallet, error) {
			body, err := jsonBody(model.WalletWithdrawRequest{Amount: amount})
			if err != nil {
				return nil, err
			}
			data, err := s.client.PostJSON(ctx, "api/v2/wallet/withdraw", token, body, http.StatusOK)
			if err != nil {
				return nil, err
			}
			resp, err = parseOptional[model.WalletWithdrawResponse](data)
			if err != nil || resp == nil {
				return nil, err
			}
			return &model.Wallet{Balance: resp.Balance}, nil
		},
	}
	if err := mut.Run(ctx); err != nil {
		return nil, err
	}
	return resp, nil
}
