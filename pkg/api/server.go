package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/uhyunpark/swapchecker/pkg/app/core/account"
	"github.com/uhyunpark/swapchecker/pkg/app/core/quote"
	"github.com/uhyunpark/swapchecker/pkg/app/core/swap"
	"github.com/uhyunpark/swapchecker/pkg/app/core/token"
	"github.com/uhyunpark/swapchecker/pkg/app/simulator"
	"github.com/uhyunpark/swapchecker/pkg/crypto"
)

const defaultHistoryLimit = 50

// Server handles REST API and WebSocket connections
type Server struct {
	app     *simulator.App
	router  *mux.Router
	hub     *Hub
	origins []string
	logger  *zap.SugaredLogger
}

// NewServer creates a new API server and hooks swap commits to the websocket hub
func NewServer(app *simulator.App, origins []string, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	s := &Server{
		app:     app,
		router:  mux.NewRouter(),
		hub:     NewHub(logger),
		origins: origins,
		logger:  logger,
	}

	app.OnSwap(s.BroadcastSwap)
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Liquidity
	api.HandleFunc("/sources", s.handleGetSources).Methods("GET")
	api.HandleFunc("/quote", s.handleGetQuote).Methods("GET")
	api.HandleFunc("/quotes", s.handleGetQuotes).Methods("GET")

	// Users
	api.HandleFunc("/users", s.handleOnboard).Methods("POST")
	api.HandleFunc("/users/{address}", s.handleGetUser).Methods("GET")
	api.HandleFunc("/users/{address}", s.handleRemoveUser).Methods("DELETE")
	api.HandleFunc("/users/{address}/swaps", s.handleGetSwaps).Methods("GET")

	// Swaps
	api.HandleFunc("/swaps", s.handleSwap).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the router wrapped in the CORS middleware
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(s.router)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	go s.hub.Run(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("api_listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Infow("api_shutdown")
		return srv.Shutdown(shutdownCtx)
	}
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetSources(w http.ResponseWriter, r *http.Request) {
	books := s.app.Books.Books()

	response := make([]SourceInfo, len(books))
	for i, b := range books {
		response[i] = SourceInfo{
			Source:  b.Source(),
			Network: b.Network().String(),
			Pairs:   b.Pairs(),
		}
	}
	respondJSON(w, response)
}

func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	from, to, amount, err := parseQuoteParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid quote request", err.Error())
		return
	}

	res, err := s.app.Aggregator.BestQuote(from, to, amount)
	if err != nil {
		respondFailure(w, err)
		return
	}

	respondJSON(w, QuoteResponse{
		From:     from.String(),
		To:       to.String(),
		Amount:   amount,
		Source:   res.Source,
		Received: res.Received,
		Slippage: res.Slippage,
	})
}

func (s *Server) handleGetQuotes(w http.ResponseWriter, r *http.Request) {
	from, to, amount, err := parseQuoteParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid quote request", err.Error())
		return
	}

	respondJSON(w, QuotesResponse{
		From:    from.String(),
		To:      to.String(),
		Amount:  amount,
		Sources: s.app.Aggregator.QuoteAll(from, to, amount),
	})
}

func (s *Server) handleOnboard(w http.ResponseWriter, r *http.Request) {
	var req OnboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	addr, err := crypto.ParseWallet(req.Address)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid address", err.Error())
		return
	}

	network := s.app.Users.SupportedNetwork()
	if req.Network != "" {
		if network, err = token.ParseNetwork(req.Network); err != nil {
			respondError(w, http.StatusBadRequest, "invalid network", err.Error())
			return
		}
	}

	var balances map[token.Token]float64
	if req.Balances != nil {
		balances = make(map[token.Token]float64, len(req.Balances))
		for sym, amt := range req.Balances {
			t, err := token.ParseToken(sym)
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid balance token", err.Error())
				return
			}
			balances[t] = amt
		}
	}

	u, err := s.app.Onboard(addr, network, balances)
	if err != nil {
		respondFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(userInfo(u))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}

	u, found := s.app.Users.Get(addr)
	if !found {
		respondError(w, http.StatusNotFound, "user not found", addr.Hex())
		return
	}
	respondJSON(w, userInfo(u))
}

func (s *Server) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}

	if _, found := s.app.Users.Get(addr); !found {
		respondError(w, http.StatusNotFound, "user not found", addr.Hex())
		return
	}
	s.app.Users.Remove(addr)
	s.logger.Infow("user_removed", "address", addr.Hex())

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSwaps(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid limit", v)
			return
		}
		limit = n
	}

	records, err := s.app.History(addr, limit)
	if err != nil {
		s.logger.Warnw("history_read_failed", "address", addr.Hex(), "err", err)
		respondError(w, http.StatusInternalServerError, "failed to read history", "")
		return
	}

	response := make([]SwapHistoryEntry, len(records))
	for i, rec := range records {
		response[i] = SwapHistoryEntry{
			ID:        rec.ID.String(),
			From:      rec.From.String(),
			To:        rec.To.String(),
			Amount:    rec.Amount,
			Received:  rec.Received,
			Source:    rec.Source,
			Slippage:  rec.Slippage,
			Timestamp: rec.Timestamp,
		}
	}
	respondJSON(w, response)
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	var body SwapRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	addr, err := crypto.ParseWallet(body.Address)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid address", err.Error())
		return
	}
	from, err := token.ParseToken(body.From)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid from token", err.Error())
		return
	}
	to, err := token.ParseToken(body.To)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid to token", err.Error())
		return
	}

	res, err := s.app.Swap(r.Context(), swap.Request{
		Address: addr,
		From:    from,
		To:      to,
		Amount:  body.Amount,
	})
	if err != nil {
		respondFailure(w, err)
		return
	}

	respondJSON(w, SwapResponse{
		Status:   "committed",
		Source:   res.Source,
		Received: res.Received,
		Slippage: res.Slippage,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]interface{}{
		"status":  "ok",
		"sources": s.app.Books.Count(),
		"users":   s.app.Users.Count(),
	})
}

// ==============================
// Broadcast Methods
// ==============================

// BroadcastSwap pushes a committed swap to "swaps" and to the user's own channel
func (s *Server) BroadcastSwap(rec swap.Record) {
	event := SwapEvent{
		Type:      "swap",
		ID:        rec.ID.String(),
		Address:   rec.Address.Hex(),
		From:      rec.From.String(),
		To:        rec.To.String(),
		Amount:    rec.Amount,
		Received:  rec.Received,
		Source:    rec.Source,
		Timestamp: rec.Timestamp,
	}

	s.hub.BroadcastToChannel(channelSwaps, event)
	s.hub.BroadcastToChannel(UserChannel(rec.Address), event)
}

// UserChannel is the per-wallet swap channel name
func UserChannel(addr common.Address) string {
	return channelSwaps + ":" + addr.Hex()
}

// ==============================
// Helper Functions
// ==============================

func parseQuoteParams(r *http.Request) (token.Token, token.Token, float64, error) {
	q := r.URL.Query()

	from, err := token.ParseToken(q.Get("from"))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("from: %w", err)
	}
	to, err := token.ParseToken(q.Get("to"))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("to: %w", err)
	}
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil || !(amount > 0) {
		return 0, 0, 0, fmt.Errorf("amount must be a positive number, got %q", q.Get("amount"))
	}
	return from, to, amount, nil
}

func pathAddress(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	addr, err := crypto.ParseWallet(mux.Vars(r)["address"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid address", err.Error())
		return common.Address{}, false
	}
	return addr, true
}

func userInfo(u *account.User) UserInfo {
	balances := make(map[string]float64, len(u.Balances))
	for t, amt := range u.Balances {
		balances[t.String()] = amt
	}
	return UserInfo{
		Address:  u.Address.Hex(),
		Network:  u.Network.String(),
		Balances: balances,
	}
}

// statusFor maps a failure kind to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, account.ErrUserNotFound),
		errors.Is(err, quote.ErrPairNotSupported):
		return http.StatusNotFound
	case errors.Is(err, account.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, account.ErrInsufficientBalance),
		errors.Is(err, account.ErrBalanceNotFound),
		errors.Is(err, quote.ErrInsufficientLiquidity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, account.ErrIncorrectNetwork),
		errors.Is(err, account.ErrNegativeBalance),
		errors.Is(err, swap.ErrInvalidRequest),
		errors.Is(err, token.ErrUnknownToken),
		errors.Is(err, token.ErrUnknownNetwork):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorLabel(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "unprocessable"
	case http.StatusBadRequest:
		return "bad request"
	default:
		return "internal error"
	}
}

func respondFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	respondError(w, status, errorLabel(status), err.Error())
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
