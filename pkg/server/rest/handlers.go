package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/CrashenX/dijkstra-server/domain"
	"github.com/CrashenX/dijkstra-server/pkg/concurrent"
	"github.com/CrashenX/dijkstra-server/pkg/datastructure"
	"github.com/CrashenX/dijkstra-server/pkg/engine/shortestpath"
)

type SolverService interface {
	Solve(ctx context.Context, start, target uint16, g *datastructure.Graph) (shortestpath.Result, error)
	History(ctx context.Context, limit int) ([]concurrent.QueryRecord, error)
}

type SolverHandler struct {
	svc          SolverService
	promeMetrics *metrics
}

func SolverRouter(r *chi.Mux, svc SolverService, m *metrics) {
	handler := &SolverHandler{svc, m}

	r.Group(func(r chi.Router) {
		r.Route("/api/routes", func(r chi.Router) {
			r.Post("/shortest-path", handler.shortestPath)
			r.Get("/history", handler.queryHistory)
		})
	})
}

type EdgeRequest struct {
	Source uint16 `json:"source" validate:"required,min=1,max=65535"`
	Target uint16 `json:"target" validate:"required,min=1,max=65535"`
	Cost   uint16 `json:"cost" validate:"required,min=1,max=65535"`
}

type ShortestPathRequest struct {
	Start  uint16        `json:"start" validate:"required,min=1,max=65535"`
	Target uint16        `json:"target" validate:"required,min=1,max=65535"`
	Edges  []EdgeRequest `json:"edges" validate:"max=65535,dive"`
}

func (s *ShortestPathRequest) Bind(r *http.Request) error {
	if s.Start == 0 || s.Target == 0 {
		return errors.New("invalid request")
	}
	return nil
}

type ShortestPathResponse struct {
	Path     string   `json:"path"`
	Vertices []uint16 `json:"vertices,omitempty"`
	Distance uint32   `json:"distance"`
	Found    bool     `json:"found"`
}

func NewShortestPathResponse(res shortestpath.Result) *ShortestPathResponse {
	return &ShortestPathResponse{
		Path:     res.String(),
		Vertices: res.Path,
		Distance: res.Distance,
		Found:    res.Found,
	}
}

func (h *SolverHandler) shortestPath(w http.ResponseWriter, r *http.Request) {
	data := &ShortestPathRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	validate := validator.New()
	if err := validate.Struct(*data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	g := datastructure.NewGraph()
	for _, e := range data.Edges {
		g.AddEdge(e.Source, e.Target, e.Cost)
	}

	res, err := h.svc.Solve(r.Context(), data.Start, data.Target, g)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	h.promeMetrics.SPQueryCount.WithLabelValues(strconv.FormatBool(res.Found)).Inc()

	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewShortestPathResponse(res))
}

type QueryHistoryItem struct {
	SolvedAt string `json:"solved_at"`
	Start    uint16 `json:"start"`
	Target   uint16 `json:"target"`
	Found    bool   `json:"found"`
	Distance uint32 `json:"distance"`
	Path     string `json:"path"`
}

type QueryHistoryResponse struct {
	Queries []QueryHistoryItem `json:"queries"`
}

func (h *SolverHandler) queryHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		l, err := strconv.Atoi(q)
		if err != nil || l < 1 {
			render.Render(w, r, ErrInvalidRequest(errors.New("limit must be a positive integer")))
			return
		}
		limit = l
	}

	recs, err := h.svc.History(r.Context(), limit)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderQueryHistoryResponse(recs))
}

func RenderQueryHistoryResponse(recs []concurrent.QueryRecord) *QueryHistoryResponse {
	queries := []QueryHistoryItem{}
	for _, rec := range recs {
		queries = append(queries, QueryHistoryItem{
			SolvedAt: time.Unix(0, rec.SolvedAt).UTC().Format(time.RFC3339Nano),
			Start:    rec.Start,
			Target:   rec.Target,
			Found:    rec.Found,
			Distance: rec.Distance,
			Path:     rec.Path,
		})
	}
	return &QueryHistoryResponse{Queries: queries}
}

type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInternalServerErrorRend(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 500,
		StatusText:     "Internal server error.",
		ErrorText:      err.Error(),
	}
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrChi(err error) render.Renderer {
	statusText := ""
	switch getStatusCode(err) {
	case http.StatusNotFound:
		statusText = "Resource not found."
	case http.StatusInternalServerError:
		statusText = "Internal server error."
	case http.StatusBadRequest:
		statusText = "Bad request."
	default:
		statusText = "Error."
	}

	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: getStatusCode(err),
		StatusText:     statusText,
		ErrorText:      err.Error(),
	}
}

func getStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ierr *domain.Error
	if !errors.As(err, &ierr) {
		return http.StatusInternalServerError
	}
	switch ierr.Code() {
	case domain.ErrInternalServerError:
		return http.StatusInternalServerError
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrBadParamInput, domain.ErrIncompleteInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs := err.(validator.ValidationErrors)
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf("%s", e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}
