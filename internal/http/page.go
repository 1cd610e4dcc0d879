package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kjstillabower/weathernow/internal/models"
	"github.com/kjstillabower/weathernow/internal/observability"
	"github.com/kjstillabower/weathernow/internal/presenter"
	"github.com/kjstillabower/weathernow/internal/service"
	"github.com/kjstillabower/weathernow/internal/validation"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// pageData is what templates/index.html renders.
type pageData struct {
	Query string
	Error string
	View  *presenter.View
	// Locate asks the browser for its position once per session; the default
	// city stays on screen if it declines.
	Locate bool
}

// GetPage handles GET /. Query city= looks up a city, lat= and lon= look up
// coordinates, and neither shows the default city while the page asks the
// browser for its location.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	city := strings.TrimSpace(q.Get("city"))
	lat, lon := strings.TrimSpace(q.Get("lat")), strings.TrimSpace(q.Get("lon"))
	data := pageData{Query: city}

	var (
		report models.Report
		err    error
	)
	switch {
	case city != "":
		city, err = validation.ValidateCity(city, h.cityMinLength, h.cityMaxLength)
		if err != nil {
			data.Error = service.MsgCityNotFound
			h.renderPage(w, r, http.StatusBadRequest, data)
			return
		}
		report, err = h.weather.ByCity(r.Context(), city)
	case lat != "" || lon != "":
		coords, perr := validation.ParseCoordinates(lat, lon)
		if perr != nil {
			data.Error = service.MsgFetchFailed
			h.renderPage(w, r, http.StatusBadRequest, data)
			return
		}
		report, err = h.weather.ByCoordinates(r.Context(), coords)
	default:
		data.Locate = true
		report, err = h.weather.Default(r.Context())
	}

	h.recordOutcome(r.Context(), err)
	if err != nil {
		status, _ := fetchErrorStatus(err)
		data.Error = service.UserMessage(err)
		h.renderPage(w, r, status, data)
		return
	}
	view := h.presenter.Present(report)
	data.View = &view
	h.renderPage(w, r, http.StatusOK, data)
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		observability.LoggerFromContext(r.Context()).Error("render page", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
