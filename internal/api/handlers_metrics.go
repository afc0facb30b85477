package api

import (
	"net/http"
)

type passFailResponse struct {
	Date string `json:"date"`
	Pass int    `json:"pass"`
	Fail int    `json:"fail"`
}

type turnAroundResponse struct {
	Date           string  `json:"date"`
	TurnAroundTime float64 `json:"turn_around_time"`
}

type openCloseResponse struct {
	Date  string `json:"date"`
	Open  int    `json:"open"`
	Close int    `json:"close"`
}

type typeResponse struct {
	Type string `json:"type"`
	Qty  int    `json:"qty"`
}

type weekCountResponse struct {
	Count int `json:"count"`
}

func (s *Server) handlePassFail(w http.ResponseWriter, r *http.Request) {
	snap, report := s.metrics.LatestPassFail(r.Context())
	s.logReport("pass/fail snapshot", report)
	if snap == nil {
		// No data is not an error for the caller: an empty object mirrors
		// an empty sheet.
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, passFailResponse{
		Date: formatDate(snap.Date),
		Pass: snap.Pass,
		Fail: snap.Fail,
	})
}

func (s *Server) handleTurnAroundTime(w http.ResponseWriter, r *http.Request) {
	series, report := s.metrics.TurnAroundMonthly(r.Context())
	s.logReport("turnaround series", report)
	resp := make([]turnAroundResponse, 0, len(series))
	for _, p := range series {
		resp = append(resp, turnAroundResponse{
			Date:           formatDate(p.Date),
			TurnAroundTime: p.TurnAround,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOpenCloseMonthly(w http.ResponseWriter, r *http.Request) {
	series, report := s.metrics.OpenCloseMonthly(r.Context())
	s.logReport("open/close series", report)
	resp := make([]openCloseResponse, 0, len(series))
	for _, p := range series {
		resp = append(resp, openCloseResponse{
			Date:  formatDate(p.Date),
			Open:  p.Open,
			Close: p.Close,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	counts, report := s.metrics.TypeCounts(r.Context())
	s.logReport("type counts", report)
	resp := make([]typeResponse, 0, len(counts))
	for _, c := range counts {
		resp = append(resp, typeResponse{Type: c.Type, Qty: c.Qty})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompletedThisWeek(w http.ResponseWriter, r *http.Request) {
	count, report := s.metrics.CompletedThisWeek(r.Context())
	s.logReport("weekly completion count", report)
	writeJSON(w, http.StatusOK, weekCountResponse{Count: count})
}
