package api

import "net/http"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		s.logger.Warn().Str("email", req.Email).Msg("Admin login rejected")
		writeError(w, http.StatusUnauthorized, errInvalidCredentials.Error())
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"token":   token,
		"message": "login realizado com sucesso",
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, errMissingToken.Error())
		return
	}
	claims, err := s.auth.Verify(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errInvalidToken.Error())
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"message": "token válido",
		"admin":   map[string]any{"email": claims.Email, "role": claims.Role},
	})
}
