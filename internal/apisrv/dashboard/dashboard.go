// Package dashboard serves the owner-facing API: restaurant units, order
// import and listing, the metric query set and the insight endpoints.
// Everything here runs behind the auth middleware; handlers read the owner
// id from the request context and never see other tenants' rows.
package dashboard

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/ifooddash/dashboard/internal/apisrv/auth"
	"github.com/ifooddash/dashboard/internal/apisrv/respond"
	"github.com/ifooddash/dashboard/internal/dependency"
	"github.com/ifooddash/dashboard/internal/entity"
	"github.com/ifooddash/dashboard/internal/middleware"
	"github.com/ifooddash/dashboard/internal/ratelimit"
)

const (
	defaultTopLimit = 5
	maxTopLimit     = 50

	defaultRatingThreshold = 3
)

// Server handles the authenticated dashboard routes.
type Server struct {
	rep     dependency.Repository
	source  dependency.OrderSource
	limiter *ratelimit.AuthLimiter
}

// New creates a dashboard server backed by the repository and the
// configured order source.
func New(rep dependency.Repository, source dependency.OrderSource, limiter *ratelimit.AuthLimiter) *Server {
	return &Server{
		rep:     rep,
		source:  source,
		limiter: limiter,
	}
}

// Routes mounts every dashboard route group. The caller is expected to
// have the auth middleware applied already.
func (s *Server) Routes(r chi.Router) {
	r.Route("/restaurants", func(r chi.Router) {
		r.Post("/", s.createRestaurant)
		r.Get("/", s.listRestaurants)
	})
	r.Route("/orders", func(r chi.Router) {
		r.Post("/import", s.importOrders)
		r.Get("/", s.listOrders)
		r.Get("/{orderId}", s.getOrder)
		r.Get("/{orderId}/export", s.exportOrder)
	})
	r.Route("/metrics", func(r chi.Router) {
		r.Get("/monthly-revenue", s.monthlyRevenue)
		r.Get("/top-selling-products", s.topSellingProducts)
		r.Get("/top-products-revenue", s.topProductsByRevenue)
		r.Get("/average-ratings", s.averageRatings)
		r.Get("/orders-by-status", s.ordersByStatus)
		r.Get("/weekly-orders", s.weeklyOrders)
		r.Get("/daily-revenue", s.dailyRevenue)
		r.Get("/cancellation-cost", s.cancellationCost)
		r.Get("/daily-overview", s.dailyOverview)
		r.Get("/daily-cumulative-revenue", s.dailyCumulativeRevenue)
		r.Get("/daily-accept-time-by-hour", s.dailyAcceptTimeByHour)
		r.Get("/daily-cancellations-by-hour", s.dailyCancellationsByHour)
		r.Get("/daily", s.dailySnapshots)
		r.Get("/summary", s.revenueSummary)
	})
	r.Route("/insights", func(r chi.Router) {
		r.Get("/top-cancelled-products", s.topCancelledProducts)
		r.Get("/orders-heatmap", s.ordersHeatmap)
		r.Get("/negative-feedbacks", s.negativeFeedbacks)
	})
}

type restaurantRequest struct {
	entity.RestaurantInsert
}

func (rr *restaurantRequest) Bind(r *http.Request) error {
	if _, err := govalidator.ValidateStruct(rr.RestaurantInsert); err != nil {
		return err
	}
	return nil
}

func (s *Server) createRestaurant(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		render.Render(w, r, respond.ErrUnauthorized("not authenticated"))
		return
	}

	req := &restaurantRequest{}
	if err := render.Bind(r, req); err != nil {
		render.Render(w, r, respond.ErrInvalidRequest(err))
		return
	}

	restaurant, err := s.rep.Restaurants().AddRestaurant(r.Context(), uid, &req.RestaurantInsert)
	if err != nil {
		slog.Default().ErrorContext(r.Context(), "can't add restaurant",
			slog.String("err", err.Error()))
		render.Render(w, r, respond.ErrInternal(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, restaurant)
}

func (s *Server) listRestaurants(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		render.Render(w, r, respond.ErrUnauthorized("not authenticated"))
		return
	}

	restaurants, err := s.rep.Restaurants().GetRestaurantsByOwner(r.Context(), uid)
	if err != nil {
		slog.Default().ErrorContext(r.Context(), "can't list restaurants",
			slog.String("err", err.Error()))
		render.Render(w, r, respond.ErrInternal(err))
		return
	}

	render.JSON(w, r, restaurants)
}

type importRequest struct {
	RestaurantID int `json:"restaurant_id"`
}

func (ir *importRequest) Bind(r *http.Request) error {
	if ir.RestaurantID <= 0 {
		return fmt.Errorf("restaurant_id is required")
	}
	return nil
}

type importResponse struct {
	Imported int   `json:"imported"`
	OrderIDs []int `json:"order_ids"`
}

// importOrders pulls the current batch from the order source and stores
// every order with its items in one transaction per order. A failed order
// leaves no rows behind.
func (s *Server) importOrders(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		render.Render(w, r, respond.ErrUnauthorized("not authenticated"))
		return
	}
	if err := s.limiter.CheckImport(middleware.GetClientIP(r)); err != nil {
		render.Render(w, r, respond.ErrTooManyRequests(err.Error()))
		return
	}

	req := &importRequest{}
	if err := render.Bind(r, req); err != nil {
		render.Render(w, r, respond.ErrInvalidRequest(err))
		return
	}

	if _, err := s.rep.Restaurants().GetRestaurantByIdForOwner(r.Context(), req.RestaurantID, uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			render.Render(w, r, respond.ErrNotFound("restaurant not found"))
			return
		}
		slog.Default().ErrorContext(r.Context(), "can't check restaurant",
			slog.String("err", err.Error()))
		render.Render(w, r, respond.ErrInternal(err))
		return
	}

	batch, err := s.source.FetchOrders(r.Context())
	if err != nil {
		slog.Default().ErrorContext(r.Context(), "can't fetch orders from source",
			slog.String("err", err.Error()))
		render.Render(w, r, respond.ErrInternal(err))
		return
	}

	ids := make([]int, 0, len(batch))
	for i := range batch {
		id, err := s.rep.Orders().CreateOrder(r.Context(), req.RestaurantID, &batch[i])
		if err != nil {
			slog.Default().ErrorContext(r.Context(), "can't import order",
				slog.String("externalId", batch[i].ExternalID),
				slog.String("err", err.Error()))
			render.Render(w, r, respond.ErrInternal(err))
			return
		}
		ids = append(ids, id)
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, &importResponse{Imported: len(ids), OrderIDs: ids})
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		render.Render(w, r, respond.ErrUnauthorized("not authenticated"))
		return
	}

	orders, err := s.rep.Orders().GetOrdersByOwner(r.Context(), uid)
	if err != nil {
		slog.Default().ErrorContext(r.Context(), "can't list orders",
			slog.String("err", err.Error()))
		render.Render(w, r, respond.ErrInternal(err))
		return
	}

	render.JSON(w, r, orders)
}

func (s *Server) orderFromRequest(w http.ResponseWriter, r *http.Request) (*entity.OrderFull, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		render.Render(w, r, respond.ErrUnauthorized("not authenticated"))
		return nil, false
	}

	id, err := strconv.Atoi(chi.URLParam(r, "orderId"))
	if err != nil {
		render.Render(w, r, respond.ErrInvalidRequest(fmt.Errorf("invalid order id")))
		return nil, false
	}

	order, err := s.rep.Orders().GetOrderByIdForOwner(r.Context(), id, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			render.Render(w, r, respond.ErrNotFound("order not found"))
			return nil, false
		}
		slog.Default().ErrorContext(r.Context(), "can't get order",
			slog.String("err", err.Error()))
		render.Render(w, r, respond.ErrInternal(err))
		return nil, false
	}
	return order, true
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := s.orderFromRequest(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, order)
}

// exportOrder streams the order header as a one-row CSV attachment.
func (s *Server) exportOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := s.orderFromRequest(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=order_%d.csv", order.ID))

	cw := csv.NewWriter(w)
	cw.Write([]string{"id", "customer_name", "restaurant_name", "placed", "status", "total_amount"})
	cw.Write([]string{
		strconv.Itoa(order.ID),
		order.CustomerName,
		order.RestaurantName,
		order.Placed.Format(time.RFC3339),
		order.Status.String(),
		order.TotalAmount.String(),
	})
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Default().ErrorContext(r.Context(), "can't write csv",
			slog.String("err", err.Error()))
	}
}

// timeRangeFromQuery reads the optional start_date/end_date params
// (YYYY-MM-DD). Both bounds are inclusive; the upper bound is translated
// to an exclusive start of the next day so the whole end date counts.
func timeRangeFromQuery(r *http.Request) (entity.TimeRange, error) {
	var tr entity.TimeRange
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		from, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return tr, fmt.Errorf("invalid start_date %q", raw)
		}
		tr.From = from
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		to, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return tr, fmt.Errorf("invalid end_date %q", raw)
		}
		tr.To = to.AddDate(0, 0, 1)
	}
	return tr, nil
}

// dayFromQuery reads the date param for the single-day endpoints,
// defaulting to today.
func dayFromQuery(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return day, nil
}

func limitFromQuery(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultTopLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultTopLimit
	}
	if n > maxTopLimit {
		return maxTopLimit
	}
	return n
}

// rangedHandler wraps the metric endpoints that take an owner id and an
// optional date range, so each handler is one line of wiring.
func (s *Server) rangedHandler(query func(r *http.Request, ownerID int, tr entity.TimeRange) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			render.Render(w, r, respond.ErrUnauthorized("not authenticated"))
			return
		}
		tr, err := timeRangeFromQuery(r)
		if err != nil {
			render.Render(w, r, respond.ErrInvalidRequest(err))
			return
		}
		out, err := query(r, uid, tr)
		if err != nil {
			slog.Default().ErrorContext(r.Context(), "metric query failed",
				slog.String("path", r.URL.Path),
				slog.String("err", err.Error()))
			render.Render(w, r, respond.ErrInternal(err))
			return
		}
		render.JSON(w, r, out)
	}
}

// dailyHandler wraps the single-day metric endpoints.
func (s *Server) dailyHandler(query func(r *http.Request, ownerID int, day time.Time) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			render.Render(w, r, respond.ErrUnauthorized("not authenticated"))
			return
		}
		day, err := dayFromQuery(r)
		if err != nil {
			render.Render(w, r, respond.ErrInvalidRequest(err))
			return
		}
		out, err := query(r, uid, day)
		if err != nil {
			slog.Default().ErrorContext(r.Context(), "metric query failed",
				slog.String("path", r.URL.Path),
				slog.String("err", err.Error()))
			render.Render(w, r, respond.ErrInternal(err))
			return
		}
		render.JSON(w, r, out)
	}
}

func (s *Server) monthlyRevenue(w http.ResponseWriter, r *http.Request) {
	s.rangedHandler(func(r *http.Request, uid int, tr entity.TimeRange) (any, error) {
		return s.rep.Metrics().MonthlyRevenue(r.Context(), uid, tr)
	})(w, r)
}

func (s *Server) topSellingProducts(w http.ResponseWriter, r *http.Request) {
	s.rangedHandler(func(r *http.Request, uid int, tr entity.TimeRange) (any, error) {
		return s.rep.Metrics().TopSellingProducts(r.Context(), uid, tr, defaultTopLimit)
	})(w, r)
}

func (s *Server) topProductsByRevenue(w http.ResponseWriter, r *http.Request) {
	s.rangedHandler(func(r *http.Request, uid int, tr entity.TimeRange) (any, error) {
		return s.rep.Metrics().TopProductsByRevenue(r.Context(), uid, tr, limitFromQuery(r))
	})(w, r)
}

func (s *Server) averageRatings(w http.ResponseWriter, r *http.Request) {
	s.rangedHandler(func(r *http.Request, uid int, tr entity.TimeRange) (any, error) {
		return s.rep.Metrics().AverageRatings(r.Context(), uid, tr)
	})(w, r)
}

func (s *Server) ordersByStatus(w http.ResponseWriter, r *http.Request) {
	s.rangedHandler(func(r *http.Request, uid int, tr entity.TimeRange) (any, error) {
		return s.rep.Metrics().OrdersByStatus(r.Context(), uid, tr)
	})(w, r)
}

func (s *Server) weeklyOrders(w http.ResponseWriter, r *http.Request) {
	s.rangedHandler(func(r *http.Request, uid int, tr entity.TimeRange) (any, error) {
		return s.rep.Metrics().WeeklyOrders(r.Context(), uid, tr)
	})(w, r)
}

func (s *Server) dailyRevenue(w http.ResponseWriter, r *http.Request) {
	s.rangedHandler(func(r *http.Request, uid int, tr entity.TimeRange) (any, error) {
		return s.rep.Metrics().DailyRevenue(r.Context(), uid, tr)
	})(w, r)
}

func (s *Server) cancellationCost(w http.ResponseWriter, r *http.Request) {
	s.rangedHandler(func(r *http.Request, uid int, tr entity.TimeRange) (any, error) {
		return s.rep.Metrics().CancellationCost(r.Context(), uid, tr)
	})(w, r)
}

func (s *Server) dailyOverview(w http.ResponseWriter, r *http.Request) {
	s.dailyHandler(func(r *http.Request, uid int, day time.Time) (any, error) {
		return s.rep.Metrics().DailyOverview(r.Context(), uid, day)
	})(w, r)
}

func (s *Server) dailyCumulativeRevenue(w http.ResponseWriter, r *http.Request) {
	s.dailyHandler(func(r *http.Request, uid int, day time.Time) (any, error) {
		return s.rep.Metrics().DailyCumulativeRevenue(r.Context(), uid, day)
	})(w, r)
}

func (s *Server) dailyAcceptTimeByHour(w http.ResponseWriter, r *http.Request) {
	s.dailyHandler(func(r *http.Request, uid int, day time.Time) (any, error) {
		return s.rep.Metrics().DailyAcceptTimeByHour(r.Context(), uid, day)
	})(w, r)
}

func (s *Server) dailyCancellationsByHour(w http.ResponseWriter, r *http.Request) {
	s.dailyHandler(func(r *http.Request, uid int, day time.Time) (any, error) {
		return s.rep.Metrics().DailyCancellationsByHour(r.Context(), uid, day)
	})(w, r)
}

func (s *Server) dailySnapshots(w http.ResponseWriter, r *http.Request) {
	s.rangedHandler(func(r *http.Request, uid int, tr entity.TimeRange) (any, error) {
		return s.rep.DailyMetrics().GetSnapshots(r.Context(), uid, tr)
	})(w, r)
}

func (s *Server) revenueSummary(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		render.Render(w, r, respond.ErrUnauthorized("not authenticated"))
		return
	}
	rows, err := s.rep.DailyMetrics().RevenueSummary(r.Context(), uid)
	if err != nil {
		slog.Default().ErrorContext(r.Context(), "can't summarize revenue",
			slog.String("err", err.Error()))
		render.Render(w, r, respond.ErrInternal(err))
		return
	}
	render.JSON(w, r, rows)
}

func (s *Server) topCancelledProducts(w http.ResponseWriter, r *http.Request) {
	s.rangedHandler(func(r *http.Request, uid int, tr entity.TimeRange) (any, error) {
		return s.rep.Metrics().TopCancelledProducts(r.Context(), uid, tr, defaultTopLimit)
	})(w, r)
}

func (s *Server) ordersHeatmap(w http.ResponseWriter, r *http.Request) {
	s.rangedHandler(func(r *http.Request, uid int, tr entity.TimeRange) (any, error) {
		return s.rep.Metrics().OrdersHeatmap(r.Context(), uid, tr)
	})(w, r)
}

func (s *Server) negativeFeedbacks(w http.ResponseWriter, r *http.Request) {
	threshold := float64(defaultRatingThreshold)
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil || t < 0 || t > 5 {
			render.Render(w, r, respond.ErrInvalidRequest(fmt.Errorf("invalid threshold %q", raw)))
			return
		}
		threshold = t
	}
	s.rangedHandler(func(r *http.Request, uid int, tr entity.TimeRange) (any, error) {
		return s.rep.Metrics().NegativeFeedbacks(r.Context(), uid, tr, threshold)
	})(w, r)
}
