package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/neiist-dev/shop-backend/api/middleware"
	"github.com/neiist-dev/shop-backend/api/responses"
	"github.com/neiist-dev/shop-backend/api/validators"
	"github.com/neiist-dev/shop-backend/internal/orders"
	"github.com/neiist-dev/shop-backend/pkg/enums"
	pkgerrors "github.com/neiist-dev/shop-backend/pkg/errors"
	"github.com/neiist-dev/shop-backend/pkg/logger"
	"github.com/neiist-dev/shop-backend/pkg/types"
)

// Field-level checks live in the orders service so one response carries
// every problem with the cart; the request structs stay tag-free.
type createOrderRequest struct {
	Name   string             `json:"name"`
	ISTID  string             `json:"ist_id"`
	Email  string             `json:"email"`
	Phone  *string            `json:"phone"`
	NIF    *string            `json:"nif"`
	Campus string             `json:"campus"`
	Notes  *string            `json:"notes"`
	Items  []orderItemRequest `json:"items"`
}

type orderItemRequest struct {
	ProductID  string          `json:"product_id"`
	Selections types.OptionMap `json:"selections"`
	Quantity   int             `json:"quantity"`
}

func (req createOrderRequest) toInput() orders.CreateOrderInput {
	// ParseCampus accepts either spelling; an unparseable value is passed
	// through raw so the service reports it with the other cart issues.
	campus := enums.Campus(req.Campus)
	if parsed, err := enums.ParseCampus(req.Campus); err == nil {
		campus = parsed
	}

	input := orders.CreateOrderInput{
		Name:   req.Name,
		ISTID:  req.ISTID,
		Email:  req.Email,
		Phone:  req.Phone,
		NIF:    req.NIF,
		Campus: campus,
		Notes:  req.Notes,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, orders.OrderItemInput{
			ProductID:  item.ProductID,
			Selections: item.Selections,
			Quantity:   item.Quantity,
		})
	}
	return input
}

func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateOrder(r.Context(), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, order.OrderID)
			logg.Info(ctx, "order.created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		filters, err := buildOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrders(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func buildOrderFilters(r *http.Request) (orders.ListFilters, error) {
	unpaid, err := validators.ParseQueryBool(r, "unpaid", false)
	if err != nil {
		return orders.ListFilters{}, err
	}
	undelivered, err := validators.ParseQueryBool(r, "undelivered", false)
	if err != nil {
		return orders.ListFilters{}, err
	}

	query := r.URL.Query()
	return orders.ListFilters{
		Name:        strings.TrimSpace(query.Get("name")),
		Email:       strings.TrimSpace(query.Get("email")),
		Phone:       strings.TrimSpace(query.Get("phone")),
		ISTID:       strings.TrimSpace(query.Get("istId")),
		Unpaid:      unpaid,
		Undelivered: undelivered,
	}, nil
}

func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		ctx := r.Context()
		orderID := chi.URLParam(r, "orderId")
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID)
		}

		order, err := svc.GetOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// TransitionOrder moves an order one step forward in its lifecycle. The
// acting member arrives via middleware.RequireActingMember.
func TransitionOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		ctx := r.Context()
		orderID := chi.URLParam(r, "orderId")
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID)
		}

		member, ok := middleware.ActingMemberFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "acting member required"))
			return
		}

		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		// Unparseable targets pass through raw; the service owns the
		// unknown-status validation error.
		raw := strings.TrimSpace(req.Status)
		target := enums.OrderStatus(raw)
		if parsed, err := enums.ParseOrderStatus(raw); err == nil {
			target = parsed
		}

		order, err := svc.Transition(ctx, orderID, target, member)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// UnsetOrderPaid rolls a paid order back to pending, clearing the payment
// stamps.
func UnsetOrderPaid(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return unsetHandler(svc, logg, func(s orders.Service) unsetFunc { return s.UnsetPaid })
}

// UnsetOrderDelivered rolls a ready or delivered order back to paid,
// clearing the fulfilment stamps.
func UnsetOrderDelivered(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return unsetHandler(svc, logg, func(s orders.Service) unsetFunc { return s.UnsetDelivered })
}

type unsetFunc = func(ctx context.Context, orderID, actingMember string) (*orders.OrderDTO, error)

func unsetHandler(svc orders.Service, logg *logger.Logger, pick func(orders.Service) unsetFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		ctx := r.Context()
		orderID := chi.URLParam(r, "orderId")
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID)
		}

		member, ok := middleware.ActingMemberFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "acting member required"))
			return
		}

		order, err := pick(svc)(ctx, orderID, member)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func DeleteOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		ctx := r.Context()
		orderID := chi.URLParam(r, "orderId")
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID)
		}

		if err := svc.DeleteOrder(ctx, orderID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(ctx, "order.deleted")
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
