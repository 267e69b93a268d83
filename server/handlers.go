package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"house-price-pipeline/features"
	"house-price-pipeline/ml"
)

// ValidationError names the request field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// predictRequest is the JSON body of POST /predict. Pointer fields
// distinguish missing keys from zero values so missing required fields are
// rejected rather than silently defaulted.
type predictRequest struct {
	Location     *string  `json:"location"`
	PropertyType *string  `json:"property_type"`
	Bedrooms     *int     `json:"bedrooms"`
	Bathrooms    *int     `json:"bathrooms"`
	Receptions   *int     `json:"receptions"`
	FloorArea    *float64 `json:"floor_area"`
}

type predictResponse struct {
	PriceEstimate float64 `json:"price_estimate"`
	Currency      string  `json:"currency"`
	LowConfidence bool    `json:"low_confidence"`
	Caveat        string  `json:"caveat,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct{ Model string }{Model: modelLabel(s.artifact.Chosen)}
	if err := s.index.Execute(w, data); err != nil {
		s.logger.Error("[server] Render index: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"model":  s.artifact.Chosen,
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	isForm := strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")

	rec, err := s.parseRecord(r, isForm)
	if err != nil {
		s.logger.Warn("[server] Rejected prediction request: %v", err)
		s.writeError(w, http.StatusBadRequest, err, isForm)
		return
	}

	est, err := s.artifact.Predict(*rec)
	if err != nil {
		s.logger.Error("[server] Prediction failed: %v", err)
		s.writeError(w, http.StatusUnprocessableEntity, err, isForm)
		return
	}

	if est.LowConfidence {
		s.logger.Warn("[server] Low-confidence estimate for %s/%s: unseen category fallback used",
			rec.Location, rec.PropertyType)
	}

	if isForm {
		s.renderResult(w, rec, est.Price, est.LowConfidence)
		return
	}

	resp := predictResponse{
		PriceEstimate: est.Price,
		Currency:      "GBP",
		LowConfidence: est.LowConfidence,
	}
	if est.LowConfidence {
		resp.Caveat = "location or property type was not seen during training; the estimate uses a fallback category"
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseRecord builds the transform input from either a form post or a JSON
// body, rejecting requests with missing or malformed required fields.
func (s *Server) parseRecord(r *http.Request, isForm bool) (*features.Record, error) {
	if isForm {
		return parseFormRecord(r)
	}
	return parseJSONRecord(r)
}

func parseJSONRecord(r *http.Request) (*features.Record, error) {
	var req predictRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, &ValidationError{Field: "body", Reason: "malformed JSON: " + err.Error()}
	}

	switch {
	case req.Location == nil || strings.TrimSpace(*req.Location) == "":
		return nil, &ValidationError{Field: "location", Reason: "required"}
	case req.PropertyType == nil || strings.TrimSpace(*req.PropertyType) == "":
		return nil, &ValidationError{Field: "property_type", Reason: "required"}
	case req.Bedrooms == nil:
		return nil, &ValidationError{Field: "bedrooms", Reason: "required"}
	case req.Bathrooms == nil:
		return nil, &ValidationError{Field: "bathrooms", Reason: "required"}
	case req.FloorArea == nil:
		return nil, &ValidationError{Field: "floor_area", Reason: "required"}
	}

	receptions := 0
	if req.Receptions != nil {
		receptions = *req.Receptions
	}

	rec := &features.Record{
		Location:     normaliseLocation(*req.Location),
		PropertyType: normaliseType(*req.PropertyType),
		Bedrooms:     *req.Bedrooms,
		Bathrooms:    *req.Bathrooms,
		Receptions:   receptions,
		FloorArea:    *req.FloorArea,
	}
	return rec, validateRanges(rec)
}

func parseFormRecord(r *http.Request) (*features.Record, error) {
	if err := r.ParseForm(); err != nil {
		return nil, &ValidationError{Field: "body", Reason: "malformed form data"}
	}

	required := []string{"location", "property_type", "bedrooms", "bathrooms", "floor_area"}
	for _, field := range required {
		if !r.PostForm.Has(field) || strings.TrimSpace(r.PostForm.Get(field)) == "" {
			return nil, &ValidationError{Field: field, Reason: "required"}
		}
	}

	bedrooms, err := strconv.Atoi(r.PostForm.Get("bedrooms"))
	if err != nil {
		return nil, &ValidationError{Field: "bedrooms", Reason: "must be an integer"}
	}
	bathrooms, err := strconv.Atoi(r.PostForm.Get("bathrooms"))
	if err != nil {
		return nil, &ValidationError{Field: "bathrooms", Reason: "must be an integer"}
	}
	receptions := 0
	if v := strings.TrimSpace(r.PostForm.Get("receptions")); v != "" {
		if receptions, err = strconv.Atoi(v); err != nil {
			return nil, &ValidationError{Field: "receptions", Reason: "must be an integer"}
		}
	}
	floorArea, err := strconv.ParseFloat(r.PostForm.Get("floor_area"), 64)
	if err != nil {
		return nil, &ValidationError{Field: "floor_area", Reason: "must be a number"}
	}

	rec := &features.Record{
		Location:     normaliseLocation(r.PostForm.Get("location")),
		PropertyType: normaliseType(r.PostForm.Get("property_type")),
		Bedrooms:     bedrooms,
		Bathrooms:    bathrooms,
		Receptions:   receptions,
		FloorArea:    floorArea,
	}
	return rec, validateRanges(rec)
}

func validateRanges(rec *features.Record) error {
	switch {
	case rec.Bedrooms < 0:
		return &ValidationError{Field: "bedrooms", Reason: "must not be negative"}
	case rec.Bathrooms < 0:
		return &ValidationError{Field: "bathrooms", Reason: "must not be negative"}
	case rec.Receptions < 0:
		return &ValidationError{Field: "receptions", Reason: "must not be negative"}
	case rec.FloorArea <= 0:
		return &ValidationError{Field: "floor_area", Reason: "must be positive"}
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error, isForm bool) {
	if isForm {
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) renderResult(w http.ResponseWriter, rec *features.Record, price float64, lowConfidence bool) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Location      string
		PropertyType  string
		Price         string
		LowConfidence bool
	}{
		Location:      rec.Location,
		PropertyType:  rec.PropertyType,
		Price:         formatPrice(price),
		LowConfidence: lowConfidence,
	}
	if err := s.result.Execute(w, data); err != nil {
		s.logger.Error("[server] Render result: %v", err)
	}
}

// Locations are stored as uppercase outcodes, property types as lowercase
// identifiers; user input is folded to match.
func normaliseLocation(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func normaliseType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// formatPrice renders a pound amount with thousands separators.
func formatPrice(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatInt(int64(v+0.5), 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("£")
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// modelLabel maps the artifact's model identifier to a display name.
func modelLabel(chosen string) string {
	switch chosen {
	case ml.ModelForest:
		return "Random Forest"
	case ml.ModelNetwork:
		return "Neural Network"
	}
	return chosen
}
