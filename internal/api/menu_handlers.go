package api

import (
	"net/http"

	"cardapio/internal/models"
)

func writeResult(w http.ResponseWriter, statusCode int, res models.WriteResult) {
	payload := map[string]any{
		"item":     res.Item,
		"degraded": res.Degraded,
	}
	if res.Warning != "" {
		payload["warning"] = res.Warning
	}
	writeOK(w, statusCode, payload)
}

func (s *Server) notify(r *http.Request, id int64, patch models.MenuItemPatch) {
	if s.deps.Notifier == nil {
		return
	}
	s.deps.Notifier.NotifyMenuChanged(r.Context(), map[int64]models.MenuItemPatch{id: patch})
}

func (s *Server) handleMenuPublic(w http.ResponseWriter, r *http.Request) {
	items := s.deps.Menu.ListActive(r.Context())

	siteInfo, err := s.deps.SiteInfo.Get(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Site info unavailable")
		siteInfo = map[string]string{}
	}

	writeOK(w, http.StatusOK, map[string]any{
		"cardapio": items,
		"siteInfo": siteInfo,
		"source":   s.deps.Menu.Status().Source,
	})
}

func (s *Server) handleMenuSync(w http.ResponseWriter, r *http.Request) {
	fp := s.deps.Menu.SyncFingerprint(r.Context())
	writeOK(w, http.StatusOK, map[string]any{
		"hash":      fp.Hash,
		"timestamp": fp.Timestamp.UnixMilli(),
		"itemCount": fp.ItemCount,
	})
}

func (s *Server) handleMenuAdmin(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, map[string]any{"cardapio": s.deps.Menu.ListAll(r.Context())})
}

func (s *Server) handleMenuGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := s.deps.Menu.GetByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"item": item})
}

func (s *Server) handleMenuCreate(w http.ResponseWriter, r *http.Request) {
	var in models.MenuItemInput
	if !decodeJSON(w, r, &in) {
		return
	}
	res, err := s.deps.Menu.Create(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.notify(r, res.Item.ID, res.Item.AsPatch())
	writeResult(w, http.StatusCreated, res)
}

func (s *Server) handleMenuUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch models.MenuItemPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	res, err := s.deps.Menu.Patch(r.Context(), id, patch)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.notify(r, id, patch)
	writeResult(w, http.StatusOK, res)
}

func (s *Server) handleMenuSoftDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := s.deps.Menu.SoftRemove(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.notify(r, id, models.Deactivation())
	writeResult(w, http.StatusOK, res)
}

func (s *Server) handleMenuHardDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := s.deps.Menu.HardRemove(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.notify(r, id, models.Deactivation())
	writeResult(w, http.StatusOK, res)
}

func (s *Server) handleMenuInvalidate(w http.ResponseWriter, r *http.Request) {
	s.deps.Menu.Invalidate()
	s.logger.Debug().Msg("Menu cache invalidated")
	writeOK(w, http.StatusOK, map[string]any{"message": "cache invalidado"})
}
