package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/emiliovps/ventia/internal/sales"
)

// saleRequest is the body of POST /api/sales: the confirmed sale, e.g.
// after the client resolved an ambiguous interpretation with the user.
type saleRequest struct {
	ProductID     string   `json:"product_id"`
	Quantity      int      `json:"quantity"`
	UnitPrice     *float64 `json:"unit_price"`
	PaymentMethod string   `json:"payment_method"`
	Date          string   `json:"date"`
}

func (s *Server) handleSaleCreate(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	draft := sales.Draft{
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		UnitPrice:     req.UnitPrice,
		PaymentMethod: req.PaymentMethod,
	}
	if req.Date != "" {
		d, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			writeErrorf(w, http.StatusBadRequest, "date must be RFC 3339, got %q", req.Date)
			return
		}
		draft.Date = d
	}

	sale, err := s.sales.Create(r.Context(), draft)
	if err != nil {
		switch {
		case errors.Is(err, sales.ErrUnknownProduct):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, sales.ErrNoPrice):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	if s.metrics != nil {
		s.metrics.RecordSale(r.Context(), sale.PaymentMethod)
	}
	writeJSON(w, http.StatusCreated, sale)
}

func (s *Server) handleSaleList(w http.ResponseWriter, r *http.Request) {
	opts, err := saleListOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.sales.List(r.Context(), opts)
	if err != nil {
		logRequestError(r, "sale list failed", err)
		writeError(w, http.StatusInternalServerError, "could not list sales")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSaleSummary(w http.ResponseWriter, r *http.Request) {
	opts, err := saleListOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sum, err := s.sales.Summarize(r.Context(), opts)
	if err != nil {
		logRequestError(r, "sale summary failed", err)
		writeError(w, http.StatusInternalServerError, "could not summarize sales")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleSaleGet(w http.ResponseWriter, r *http.Request) {
	sale, err := s.sales.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sales.ErrNotFound) {
			writeError(w, http.StatusNotFound, "sale not found")
			return
		}
		logRequestError(r, "sale get failed", err)
		writeError(w, http.StatusInternalServerError, "could not load sale")
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (s *Server) handleSaleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.sales.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, sales.ErrNotFound) {
			writeError(w, http.StatusNotFound, "sale not found")
			return
		}
		logRequestError(r, "sale delete failed", err)
		writeError(w, http.StatusInternalServerError, "could not delete sale")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// saleListOptions parses the shared list/summary query parameters.
func saleListOptions(r *http.Request) (sales.ListOptions, error) {
	opts := sales.ListOptions{
		ProductID: r.URL.Query().Get("product_id"),
	}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return opts, errors.New(`"from" must be an RFC 3339 timestamp`)
		}
		opts.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return opts, errors.New(`"to" must be an RFC 3339 timestamp`)
		}
		opts.To = t
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, errors.New(`"limit" must be a non-negative integer`)
		}
		opts.Limit = n
	}
	return opts, nil
}
