package httpapi

import "net/http"

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	user, err := s.users.Register(r.Context(), req.Login, req.Password)
	if err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": user.ID, "login": user.Login})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	pair, err := s.users.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	pair, err := s.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	if err := s.users.Logout(r.Context(), req.RefreshToken); err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
