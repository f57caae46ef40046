package service

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/fakeexchange/internal/domain"
	"github.com/efreitasn/fakeexchange/internal/store"
)

var (
	clientIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	assetRegex    = regexp.MustCompile(`^[A-Z0-9]{1,16}$`)
)

// DepositRequest represents the input for a balance deposit.
type DepositRequest struct {
	ClientID string
	Asset    string
	Amount   decimal.Decimal
}

// Balance is a client's holding of a single asset.
type Balance struct {
	ClientID string
	Asset    string
	Amount   decimal.Decimal
}

// BalanceService manages client balances and decides whether a client can
// afford an order. It implements engine.BalanceAuthorizer.
type BalanceService struct {
	store  store.BalanceStore
	pairs  *domain.PairRegistry
	logger *slog.Logger
}

// NewBalanceService creates a new BalanceService.
func NewBalanceService(store store.BalanceStore, pairs *domain.PairRegistry, logger *slog.Logger) *BalanceService {
	return &BalanceService{
		store:  store,
		pairs:  pairs,
		logger: logger,
	}
}

// Deposit validates the request and credits the client's balance.
func (s *BalanceService) Deposit(req DepositRequest) (Balance, error) {
	if !clientIDRegex.MatchString(req.ClientID) {
		return Balance{}, &domain.ValidationError{
			Message: "client_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	asset := strings.ToUpper(req.Asset)
	if !assetRegex.MatchString(asset) {
		return Balance{}, &domain.ValidationError{
			Message: "asset must be 1 to 16 letters or digits",
		}
	}
	if err := domain.ValidateAmount("amount", req.Amount); err != nil {
		return Balance{}, err
	}

	total, err := s.store.Deposit(req.ClientID, asset, req.Amount)
	if err != nil {
		return Balance{}, fmt.Errorf("deposit %s %s: %w", req.ClientID, asset, err)
	}

	s.logger.Info("deposit",
		slog.String("client_id", req.ClientID),
		slog.String("asset", asset),
		slog.String("amount", req.Amount.String()),
		slog.String("balance", total.String()),
	)
	return Balance{ClientID: req.ClientID, Asset: asset, Amount: total}, nil
}

// Balances returns every asset balance of a client, sorted by asset.
func (s *BalanceService) Balances(clientID string) ([]Balance, error) {
	if !clientIDRegex.MatchString(clientID) {
		return nil, &domain.ValidationError{
			Message: "client_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}

	assets, err := s.store.List(clientID)
	if err != nil {
		return nil, err
	}

	result := make([]Balance, 0, len(assets))
	for asset, amount := range assets {
		result = append(result, Balance{ClientID: clientID, Asset: asset, Amount: amount})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Asset < result[j].Asset })
	return result, nil
}

// AuthorizeOrder reports whether the client holds enough to cover order.
// A buy needs price × volume of the quote asset and a sell needs volume of
// the base asset. Market buys have no price and only need a positive quote
// balance. Nothing is reserved.
func (s *BalanceService) AuthorizeOrder(order *domain.Order) bool {
	pair, ok := s.pairs.Lookup(order.Pair)
	if !ok {
		s.logger.Warn("authorize order for unknown pair", slog.String("pair", order.Pair))
		return false
	}

	asset, required := pair.Base, order.Volume
	if order.TradeType == domain.TradeTypeBuy {
		asset, required = pair.Quote, order.Price.Mul(order.Volume)
	}

	available, err := s.store.Get(order.ClientID, asset)
	if err != nil {
		s.logger.Error("read balance",
			slog.String("client_id", order.ClientID),
			slog.String("asset", asset),
			slog.String("error", err.Error()),
		)
		return false
	}

	if order.TradeType == domain.TradeTypeBuy && order.OrderType == domain.OrderTypeMarket {
		return available.IsPositive()
	}
	return available.GreaterThanOrEqual(required)
}
