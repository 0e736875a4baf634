package services

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/infra"
	"storefront/internal/session"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/logger"
)

const (
	HistoryPageSize        = 10
	DefaultHistoryOrdering = "-created_at"
)

type OrderQuery struct {
	Page          int    `form:"page"`
	Ordering      string `form:"ordering"`
	Status        string `form:"status"`
	PaymentStatus string `form:"payment_status"`
	Search        string `form:"search"`
	DateFrom      string `form:"date_from"`
	DateTo        string `form:"date_to"`
	MinAmount     string `form:"min_amount"`
	MaxAmount     string `form:"max_amount"`
}

func (q OrderQuery) values() url.Values {
	v := historyValues(q.Page, q.Ordering)
	setIfPresent(v, "status", q.Status)
	setIfPresent(v, "payment_status", q.PaymentStatus)
	setIfPresent(v, "search", q.Search)
	setIfPresent(v, "date_from", q.DateFrom)
	setIfPresent(v, "date_to", q.DateTo)
	setIfPresent(v, "min_amount", q.MinAmount)
	setIfPresent(v, "max_amount", q.MaxAmount)
	return v
}

type OrderList struct {
	Orders     []domain.Order     `json:"orders"`
	Count      int                `json:"count"`
	Page       int                `json:"page"`
	TotalPages int                `json:"total_pages"`
	Stats      *domain.OrderStats `json:"overall_stats,omitempty"`
}

type ProgressStep struct {
	Status  domain.OrderStatus `json:"status"`
	Label   string             `json:"label"`
	Done    bool               `json:"done"`
	Current bool               `json:"current"`
}

type OrderDetail struct {
	Order       *domain.Order  `json:"order"`
	CanCancel   bool           `json:"can_cancel"`
	StatusLabel string         `json:"status_label"`
	Progress    []ProgressStep `json:"progress"`
}

type OrderActionResult struct {
	Message string       `json:"message"`
	Order   *OrderDetail `json:"order,omitempty"`
}

type ReorderResult struct {
	Message          string            `json:"message"`
	AvailableItems   []json.RawMessage `json:"available_items"`
	UnavailableItems []json.RawMessage `json:"unavailable_items,omitempty"`
	Redirect         string            `json:"redirect"`
}

type OrderService struct {
	backend
	api infra.OrderAPI
}

func NewOrderService(api infra.OrderAPI, sessions *session.Manager, logg *logger.Logger) *OrderService {
	if logg == nil {
		logg = logger.Nop()
	}
	return &OrderService{backend: backend{sessions: sessions, logg: logg}, api: api}
}

func (s *OrderService) List(ctx context.Context, sess *session.Session, q OrderQuery) (*OrderList, error) {
	page, err := s.api.ListOrders(ctx, sess.AccessToken, q.values())
	if err != nil {
		return nil, s.translate(ctx, sess, err, failure{op: "orders.list", fallback: "Failed to load orders"})
	}
	orders := page.Results
	if orders == nil {
		orders = []domain.Order{}
	}
	return &OrderList{
		Orders:     orders,
		Count:      page.Count,
		Page:       currentPage(q.Page),
		TotalPages: totalPages(page.Count, HistoryPageSize),
		Stats:      page.OverallStats,
	}, nil
}

func (s *OrderService) Get(ctx context.Context, sess *session.Session, orderID string) (*OrderDetail, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "No order ID provided")
	}
	order, err := s.api.GetOrder(ctx, sess.AccessToken, orderID)
	if err != nil {
		return nil, s.translate(ctx, sess, err, failure{
			op:       "orders.detail",
			fallback: "Failed to load order details",
			network:  "Failed to load order details. Please check your connection.",
			notFound: "Order not found",
			keys:     []string{"message", "detail"},
		})
	}
	return describeOrder(order), nil
}

func (s *OrderService) Cancel(ctx context.Context, sess *session.Session, orderID string, confirmed bool) (*OrderActionResult, error) {
	if !confirmed {
		return nil, pkgerrors.New(pkgerrors.CodeConfirmationRequired, "Are you sure you want to cancel this order?").
			WithDetails(map[string]string{"order_id": orderID})
	}

	current, err := s.Get(ctx, sess, orderID)
	if err != nil {
		return nil, err
	}
	if !current.CanCancel {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "This order can no longer be cancelled").
			WithDetails(map[string]string{"status": string(current.Order.Status)})
	}

	res, err := s.api.CancelOrder(ctx, sess.AccessToken, orderID)
	if err != nil {
		return nil, s.translate(ctx, sess, err, failure{
			op:       "orders.cancel",
			fallback: "Failed to cancel order",
			network:  "Failed to cancel order. Please try again.",
			keys:     []string{"message"},
		})
	}

	msg := res.Message
	if msg == "" {
		msg = "Order cancelled successfully"
	}
	out := &OrderActionResult{Message: msg}

	refreshed, err := s.Get(ctx, sess, orderID)
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"order_id": orderID, "error": err.Error()}), "orders.refresh_after_cancel_failed")
		return out, nil
	}
	out.Order = refreshed
	return out, nil
}

func (s *OrderService) Reorder(ctx context.Context, sess *session.Session, orderID string) (*ReorderResult, error) {
	res, err := s.api.Reorder(ctx, sess.AccessToken, orderID)
	if err != nil {
		return nil, s.translate(ctx, sess, err, failure{
			op:       "orders.reorder",
			fallback: "Failed to process reorder",
			network:  "Failed to process reorder. Please try again.",
			keys:     []string{"message"},
		})
	}
	if len(res.AvailableItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "No items from this order are currently available for reorder.")
	}
	msg := res.Message
	if msg == "" {
		msg = strconv.Itoa(len(res.AvailableItems)) + " item(s) ready for checkout"
	}
	return &ReorderResult{
		Message:          msg,
		AvailableItems:   res.AvailableItems,
		UnavailableItems: res.UnavailableItems,
		Redirect:         CheckoutPath,
	}, nil
}

func (s *OrderService) Invoice(ctx context.Context, sess *session.Session, orderID string) (json.RawMessage, error) {
	raw, err := s.api.GetInvoice(ctx, sess.AccessToken, orderID)
	if err != nil {
		return nil, s.translate(ctx, sess, err, failure{
			op:       "orders.invoice",
			fallback: "Failed to get invoice data",
			network:  "Failed to get invoice. Please try again.",
			opaque:   true,
		})
	}
	return raw, nil
}

// TrackingNumber returns the carrier tracking number once the order has one.
func TrackingNumber(order *domain.Order) (string, bool) {
	if order == nil {
		return "", false
	}
	tn := strings.TrimSpace(order.TrackingNumber)
	return tn, tn != ""
}

func describeOrder(order *domain.Order) *OrderDetail {
	return &OrderDetail{
		Order:       order,
		CanCancel:   order.Status.CanCancel(),
		StatusLabel: order.Status.Label(),
		Progress:    progressFor(order.Status),
	}
}

// progressFor lays out the forward path. Side states leave every step open.
func progressFor(status domain.OrderStatus) []ProgressStep {
	path := []domain.OrderStatus{
		domain.StatusPending,
		domain.StatusConfirmed,
		domain.StatusProcessing,
		domain.StatusShipped,
		domain.StatusDelivered,
	}
	step := status.Step()
	out := make([]ProgressStep, 0, len(path))
	for i, st := range path {
		out = append(out, ProgressStep{
			Status:  st,
			Label:   st.Label(),
			Done:    step > 0 && i+1 <= step,
			Current: i+1 == step,
		})
	}
	return out
}

func historyValues(page int, ordering string) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(currentPage(page)))
	ordering = strings.TrimSpace(ordering)
	if ordering == "" {
		ordering = DefaultHistoryOrdering
	}
	v.Set("ordering", ordering)
	return v
}

func currentPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
