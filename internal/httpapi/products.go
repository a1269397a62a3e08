package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/emiliovps/ventia/internal/catalog"
)

// productRequest is the write shape for product create and update.
type productRequest struct {
	Name   string                `json:"name"`
	Price  float64               `json:"price"`
	Status catalog.ProductStatus `json:"status"`
}

func (s *Server) handleProductList(w http.ResponseWriter, r *http.Request) {
	opts := catalog.ListOptions{}
	if v := r.URL.Query().Get("status"); v != "" {
		st := catalog.ProductStatus(v)
		if !st.IsValid() {
			writeErrorf(w, http.StatusBadRequest, "invalid status %q", v)
			return
		}
		opts.Status = st
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeErrorf(w, http.StatusBadRequest, "invalid limit %q", v)
			return
		}
		opts.Limit = n
	}

	list, err := s.products.List(r.Context(), opts)
	if err != nil {
		logRequestError(r, "product list failed", err)
		writeError(w, http.StatusInternalServerError, "could not list products")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleProductCreate(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.products.Create(r.Context(), catalog.Product{
		Name:   req.Name,
		Price:  req.Price,
		Status: req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrDuplicateID):
			writeError(w, http.StatusConflict, "product already exists")
		default:
			// Store implementations validate before persisting; treat
			// validation failures as client errors.
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleProductGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.products.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		logRequestError(r, "product get failed", err)
		writeError(w, http.StatusInternalServerError, "could not load product")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProductUpdate(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := catalog.Product{
		ID:     r.PathValue("id"),
		Name:   req.Name,
		Price:  req.Price,
		Status: req.Status,
	}
	if err := s.products.Update(r.Context(), p); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.products.Get(r.Context(), p.ID)
	if err != nil {
		logRequestError(r, "product reload failed", err)
		writeError(w, http.StatusInternalServerError, "could not load product")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleProductDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.products.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		logRequestError(r, "product delete failed", err)
		writeError(w, http.StatusInternalServerError, "could not delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
