package telemetry

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Handler serves the collector beacon endpoints.
type Handler struct {
	store    *Store
	salt     Salt
	limiter  *rateLimiter
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler returns a handler rate limited to perMinute beacons per IP.
// Call Close to stop the limiter.
func NewHandler(store *Store, salt Salt, perMinute int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if perMinute <= 0 {
		perMinute = 60
	}
	return &Handler{
		store:    store,
		salt:     salt,
		limiter:  newRateLimiter(perMinute, time.Minute),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      time.Now,
	}
}

// Close stops background work.
func (h *Handler) Close() {
	h.limiter.Stop()
}

// ViewRequest is the body posted by the analytics collector.
type ViewRequest struct {
	Path       string `json:"path" validate:"required,startswith=/,max=2048"`
	Referrer   string `json:"referrer" validate:"max=2048"`
	ScreenSize string `json:"screen_size" validate:"max=32"`
}

// VitalRequest is the body posted by the performance collector.
type VitalRequest struct {
	Path   string  `json:"path" validate:"required,startswith=/,max=2048"`
	Metric string  `json:"metric" validate:"required,oneof=LCP FCP CLS INP TTFB FID"`
	Value  float64 `json:"value" validate:"gte=0,lte=600000"`
}

const maxUserAgentLen = 512

// admit applies the checks shared by both beacons. It returns false when the
// request has already been answered.
func (h *Handler) admit(c echo.Context) (bool, error) {
	if !h.limiter.allow(c.RealIP()) {
		return false, c.NoContent(http.StatusTooManyRequests)
	}
	if c.Request().Header.Get("DNT") == "1" || c.Request().Header.Get("Sec-GPC") == "1" {
		return false, c.NoContent(http.StatusNoContent)
	}
	return true, nil
}

func userAgent(c echo.Context) string {
	ua := c.Request().UserAgent()
	if len(ua) > maxUserAgentLen {
		ua = ua[:maxUserAgentLen]
	}
	return ua
}

// CollectView records a page view.
func (h *Handler) CollectView(c echo.Context) error {
	if ok, err := h.admit(c); !ok {
		return err
	}
	var req ViewRequest
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request")
	}
	if err := h.validate.Struct(req); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request")
	}

	ua := userAgent(c)
	ip := c.RealIP()
	now := h.now().UTC()
	visitor := h.salt.VisitorID(ip, ua)
	browser, os, device := ParseUserAgent(ua)

	v := &PageView{
		VisitorID:  visitor,
		SessionID:  h.salt.SessionID(visitor, now),
		IPHash:     h.salt.HashIP(ip),
		Browser:    browser,
		OS:         os,
		Device:     device,
		Path:       req.Path,
		Referrer:   CleanReferrer(req.Referrer),
		ScreenSize: req.ScreenSize,
		Bot:        BotName(ua),
		Timestamp:  now,
	}
	if err := h.store.SavePageView(c.Request().Context(), v); err != nil {
		h.logger.Error("save page view", zap.Error(err), zap.String("path", req.Path))
	}
	return c.NoContent(http.StatusNoContent)
}

// CollectVitals records a performance sample. Bots are ignored.
func (h *Handler) CollectVitals(c echo.Context) error {
	if ok, err := h.admit(c); !ok {
		return err
	}
	var req VitalRequest
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request")
	}
	if err := h.validate.Struct(req); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request")
	}

	ua := userAgent(c)
	if IsBot(ua) {
		return c.NoContent(http.StatusNoContent)
	}
	v := &Vital{
		VisitorID: h.salt.VisitorID(c.RealIP(), ua),
		Path:      req.Path,
		Metric:    req.Metric,
		Value:     req.Value,
		Rating:    RateVital(req.Metric, req.Value),
		Timestamp: h.now().UTC(),
	}
	if err := h.store.SaveVital(c.Request().Context(), v); err != nil {
		h.logger.Error("save vital", zap.Error(err), zap.String("metric", req.Metric))
	}
	return c.NoContent(http.StatusNoContent)
}

// Endpoint paths for the two collectors.
const (
	ViewPath   = "/api/telemetry/view"
	VitalsPath = "/api/telemetry/vitals"
)

// RegisterRoutes mounts the beacon endpoints.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST(ViewPath, h.CollectView)
	e.POST(VitalsPath, h.CollectVitals)
}
