package api

import (
	"net/http"

	"cardapio/internal/models"
)

func (s *Server) handleCustomerList(w http.ResponseWriter, r *http.Request) {
	customers, err := s.deps.Customers.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if customers == nil {
		customers = []*models.Customer{}
	}
	writeOK(w, http.StatusOK, map[string]any{"clientes": customers})
}

func (s *Server) handleCustomerCreate(w http.ResponseWriter, r *http.Request) {
	var c models.Customer
	if !decodeJSON(w, r, &c) {
		return
	}
	if err := s.deps.Customers.Register(r.Context(), &c); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"cliente": c})
}

func (s *Server) handleCustomerDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Customers.Deactivate(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "cliente removido"})
}

func (s *Server) handleSiteInfoGet(w http.ResponseWriter, r *http.Request) {
	info, err := s.deps.SiteInfo.Get(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"siteInfo": info})
}

func (s *Server) handleSiteInfoUpdate(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if !decodeJSON(w, r, &values) {
		return
	}
	info, err := s.deps.SiteInfo.Update(r.Context(), values)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"siteInfo": info})
}
