package api

import (
	"fmt"
	"net/http"
	"path/filepath"

	"cardapio/internal/models"
)

func (s *Server) handleOrderCreate(w http.ResponseWriter, r *http.Request) {
	var order models.Order
	if !decodeJSON(w, r, &order) {
		return
	}
	if err := s.deps.Orders.PlaceOrder(r.Context(), &order); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{
		"message": "pedido criado com sucesso",
		"pedido":  order,
	})
}

func (s *Server) handleOrderList(w http.ResponseWriter, r *http.Request) {
	orders, err := s.deps.Orders.ListOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	writeOK(w, http.StatusOK, map[string]any{"pedidos": orders})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status é obrigatório")
		return
	}
	order, err := s.deps.Orders.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"message": "status atualizado",
		"pedido":  order,
	})
}

func (s *Server) handleOrderCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Orders.Cancel(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "pedido cancelado com sucesso"})
}

func (s *Server) handleOrderExport(w http.ResponseWriter, r *http.Request) {
	if s.deps.Exporter == nil {
		writeError(w, http.StatusNotImplemented, "exportação desabilitada")
		return
	}
	status := r.URL.Query().Get("status")
	orders, err := s.deps.Orders.ListOrders(r.Context(), status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	path, err := s.deps.Exporter.Export(orders, status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}
