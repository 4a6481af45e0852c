package report

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"pos-backend/internal/domain/orders"
	"pos-backend/internal/domain/stock"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler отдаёт отчёты xlsx по внутреннему HTTP.
// Период задаётся query-параметрами from/to (YYYY-MM-DD), по умолчанию
// последние 30 дней.
type Handler struct {
	log    *slog.Logger
	stock  *stock.Repo
	orders *orders.Repo
}

func NewHandler(log *slog.Logger, st *stock.Repo, ord *orders.Repo) *Handler {
	return &Handler{log: log, stock: st, orders: ord}
}

func period(r *http.Request) (time.Time, time.Time, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if s := r.URL.Query().Get("from"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return from, to, fmt.Errorf("bad from: %w", err)
		}
		from = t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return from, to, fmt.Errorf("bad to: %w", err)
		}
		// включительно по конец дня
		to = t.AddDate(0, 0, 1)
	}
	return from, to, nil
}

func (h *Handler) serve(w http.ResponseWriter, name string, data []byte) {
	fileName := fmt.Sprintf("%s_%s.xlsx", name, time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	_, _ = w.Write(data)
}

func (h *Handler) Movements(w http.ResponseWriter, r *http.Request) {
	from, to, err := period(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	entries, err := h.stock.Journal(r.Context(), from, to)
	if err != nil {
		h.log.Error("movements report failed", "err", err)
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}
	data, err := BuildMovements(entries)
	if err != nil {
		h.log.Error("movements report failed", "err", err)
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}
	h.serve(w, "movements", data)
}

func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	from, to, err := period(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows, err := h.orders.Register(r.Context(), from, to)
	if err != nil {
		h.log.Error("orders report failed", "err", err)
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}
	data, err := BuildOrders(rows)
	if err != nil {
		h.log.Error("orders report failed", "err", err)
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}
	h.serve(w, "orders", data)
}
