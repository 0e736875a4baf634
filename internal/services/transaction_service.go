package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/infra"
	"storefront/internal/pricing"
	"storefront/internal/session"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/logger"

	"github.com/shopspring/decimal"
)

type TransactionQuery struct {
	Page            int    `form:"page"`
	Ordering        string `form:"ordering"`
	TransactionType string `form:"transaction_type"`
	Status          string `form:"status"`
	PaymentMethod   string `form:"payment_method"`
	Search          string `form:"search"`
	DateFrom        string `form:"date_from"`
	DateTo          string `form:"date_to"`
	MinAmount       string `form:"min_amount"`
	MaxAmount       string `form:"max_amount"`
}

func (q TransactionQuery) values() url.Values {
	v := historyValues(q.Page, q.Ordering)
	setIfPresent(v, "transaction_type", q.TransactionType)
	setIfPresent(v, "status", q.Status)
	setIfPresent(v, "payment_method", q.PaymentMethod)
	setIfPresent(v, "search", q.Search)
	setIfPresent(v, "date_from", q.DateFrom)
	setIfPresent(v, "date_to", q.DateTo)
	setIfPresent(v, "min_amount", q.MinAmount)
	setIfPresent(v, "max_amount", q.MaxAmount)
	return v
}

// TransactionStats summarises the page currently shown, not the whole history.
type TransactionStats struct {
	TotalTransactions   int             `json:"total_transactions"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	TotalRefunds        decimal.Decimal `json:"total_refunds"`
	PendingTransactions int             `json:"pending_transactions"`
	FailedTransactions  int             `json:"failed_transactions"`
	SuccessRate         decimal.Decimal `json:"success_rate"`
}

type TransactionList struct {
	Transactions []domain.Transaction `json:"transactions"`
	Count        int                  `json:"count"`
	Page         int                  `json:"page"`
	TotalPages   int                  `json:"total_pages"`
	Stats        TransactionStats     `json:"stats"`
}

// Receipt is the downloadable JSON export of one transaction.
type Receipt struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          string          `json:"date"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	Order         string          `json:"order"`
}

type TransactionService struct {
	backend
	api infra.TransactionAPI
}

func NewTransactionService(api infra.TransactionAPI, sessions *session.Manager, logg *logger.Logger) *TransactionService {
	if logg == nil {
		logg = logger.Nop()
	}
	return &TransactionService{backend: backend{sessions: sessions, logg: logg}, api: api}
}

func (s *TransactionService) List(ctx context.Context, sess *session.Session, q TransactionQuery) (*TransactionList, error) {
	page, err := s.api.ListTransactions(ctx, sess.AccessToken, q.values())
	if err != nil {
		return nil, s.translate(ctx, sess, err, failure{op: "transactions.list", fallback: "Failed to load transactions"})
	}
	txs := page.Results
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return &TransactionList{
		Transactions: txs,
		Count:        page.Count,
		Page:         currentPage(q.Page),
		TotalPages:   totalPages(page.Count, HistoryPageSize),
		Stats:        ComputeTransactionStats(txs),
	}, nil
}

func (s *TransactionService) Get(ctx context.Context, sess *session.Session, transactionID string) (*domain.Transaction, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "No transaction ID provided")
	}
	tx, err := s.api.GetTransaction(ctx, sess.AccessToken, transactionID)
	if err != nil {
		return nil, s.translate(ctx, sess, err, failure{
			op:       "transactions.detail",
			fallback: "Failed to load transaction details",
			notFound: fmt.Sprintf("Transaction %s not found. Please check if this transaction belongs to your account.", transactionID),
		})
	}
	return tx, nil
}

// Receipt loads the transaction and renders its export together with the
// download file name.
func (s *TransactionService) Receipt(ctx context.Context, sess *session.Session, transactionID string) ([]byte, string, error) {
	tx, err := s.Get(ctx, sess, transactionID)
	if err != nil {
		return nil, "", err
	}
	return BuildReceipt(tx)
}

func BuildReceipt(tx *domain.Transaction) ([]byte, string, error) {
	method := tx.PaymentMethodDisplay
	if method == "" {
		method = tx.PaymentMethod
	}
	order := ""
	if tx.Order != nil {
		order = tx.Order.OrderID
	}
	r := Receipt{
		TransactionID: tx.TransactionID,
		Amount:        tx.Amount,
		Date:          tx.CreatedAt,
		Status:        string(tx.Status),
		PaymentMethod: method,
		Order:         order,
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "Failed to build receipt")
	}
	return data, fmt.Sprintf("receipt_%s.json", tx.TransactionID), nil
}

// FormatAmount renders refunds with a leading minus.
func FormatAmount(amount decimal.Decimal, kind domain.TransactionType) string {
	if kind.IsRefund() {
		return pricing.Format(amount.Abs().Neg())
	}
	return pricing.Format(amount)
}

func ComputeTransactionStats(txs []domain.Transaction) TransactionStats {
	stats := TransactionStats{
		TotalTransactions: len(txs),
		TotalAmount:       decimal.Zero,
		TotalRefunds:      decimal.Zero,
		SuccessRate:       decimal.Zero,
	}
	completed := 0
	for _, tx := range txs {
		switch domain.TransactionStatus(strings.ToLower(string(tx.Status))) {
		case domain.TransactionCompleted:
			completed++
			stats.TotalAmount = stats.TotalAmount.Add(tx.Amount)
		case domain.TransactionPending:
			stats.PendingTransactions++
		case domain.TransactionFailed:
			stats.FailedTransactions++
		}
		if domain.TransactionType(strings.ToLower(string(tx.TransactionType))) == domain.TransactionRefund {
			stats.TotalRefunds = stats.TotalRefunds.Add(tx.Amount)
		}
	}
	if len(txs) > 0 {
		stats.SuccessRate = decimal.NewFromInt(int64(completed)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(len(txs)))).
			Round(1)
	}
	return stats
}
