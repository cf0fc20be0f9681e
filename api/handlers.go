package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"cagnotte/domain"
	"cagnotte/domain/entities"
	"cagnotte/domain/interfaces"
	"cagnotte/domain/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HealthCheck reports whether a backing dependency is reachable
type HealthCheck func(ctx context.Context) error

// Handler serves the pot endpoints
type Handler struct {
	service       interfaces.CagnotteService
	feed          domain.PotChangeFeed
	shareBaseURL  string
	keepAlive     time.Duration
	healthChecks  map[string]HealthCheck
	healthTimeout time.Duration

	streamsDone chan struct{}
	closeOnce   sync.Once
}

// NewHandler creates the pot handlers
func NewHandler(service interfaces.CagnotteService, feed domain.PotChangeFeed, shareBaseURL string) *Handler {
	return &Handler{
		service:       service,
		feed:          feed,
		shareBaseURL:  shareBaseURL,
		keepAlive:     15 * time.Second,
		healthChecks:  make(map[string]HealthCheck),
		healthTimeout: 2 * time.Second,
		streamsDone:   make(chan struct{}),
	}
}

// CloseStreams ends every open event stream
func (h *Handler) CloseStreams() {
	h.closeOnce.Do(func() { close(h.streamsDone) })
}

// AddHealthCheck registers a dependency probed by /healthz
func (h *Handler) AddHealthCheck(name string, check HealthCheck) {
	h.healthChecks[name] = check
}

// Health reports liveness along with the state of registered dependencies
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.healthTimeout)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}
	for name, check := range h.healthChecks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}

// CreatePot handles POST /api/pots
func (h *Handler) CreatePot(c *gin.Context) {
	var params interfaces.CreatePotParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondError(c, domain.ErrValidation.WithDetail("invalid request body").WithError(err))
		return
	}

	pot, err := h.service.Create(c.Request.Context(), callerFrom(c), params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreatedPotResponse{
		ID:         pot.ID,
		Title:      pot.Title,
		Visibility: pot.Visibility(),
		Deadline:   pot.Deadline,
		ShareLink:  services.ShareLink(h.shareBaseURL, pot),
	})
}

// ListVisiblePots handles GET /api/pots
func (h *Handler) ListVisiblePots(c *gin.Context) {
	items, err := h.service.ListVisible(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pots": toPotListResponse(items)})
}

// ListMyPots handles GET /api/pots/mine
func (h *Handler) ListMyPots(c *gin.Context) {
	items, err := h.service.ListMine(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pots": toPotListResponse(items)})
}

// EntryPrices handles GET /api/pots/denominations, the prices a creator may pick
func (h *Handler) EntryPrices(c *gin.Context) {
	c.JSON(http.StatusOK, EntryPricesResponse{
		Currency:    "XOF",
		EntryPrices: entities.EntryPriceDenominations(),
	})
}

// GetPot handles GET /api/pots/:id
func (h *Handler) GetPot(c *gin.Context) {
	potID, ok := potIDParam(c)
	if !ok {
		return
	}

	view, err := h.service.GetPot(c.Request.Context(), callerFrom(c), potID, accessTokenFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPotResponse(view))
}

// Contribute handles POST /api/pots/:id/contributions
func (h *Handler) Contribute(c *gin.Context) {
	potID, ok := potIDParam(c)
	if !ok {
		return
	}

	participation, err := h.service.Contribute(c.Request.Context(), callerFrom(c), potID, accessTokenFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ParticipationResponse{
		ID:        participation.ID,
		PotID:     participation.PotID,
		Amount:    participation.ContributionAmount,
		CreatedAt: participation.CreatedAt,
		Message:   "Participation enregistrée. Merci !",
	})
}

// ResolveByDraw handles POST /api/pots/:id/draw
func (h *Handler) ResolveByDraw(c *gin.Context) {
	potID, ok := potIDParam(c)
	if !ok {
		return
	}

	resolution, err := h.service.ResolveByDraw(c.Request.Context(), callerFrom(c), potID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResolutionResponse(resolution))
}

// ResolveByPayout handles POST /api/pots/:id/payout
func (h *Handler) ResolveByPayout(c *gin.Context) {
	potID, ok := potIDParam(c)
	if !ok {
		return
	}

	resolution, err := h.service.ResolveByPayout(c.Request.Context(), callerFrom(c), potID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResolutionResponse(resolution))
}

// MakePublic handles POST /api/pots/:id/publish
func (h *Handler) MakePublic(c *gin.Context) {
	potID, ok := potIDParam(c)
	if !ok {
		return
	}

	pot, err := h.service.MakePublic(c.Request.Context(), callerFrom(c), potID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PublishedPotResponse{
		ID:         pot.ID,
		Visibility: pot.Visibility(),
		ShareLink:  services.ShareLink(h.shareBaseURL, pot),
	})
}

// potIDParam parses the :id segment. Malformed ids cannot name a pot.
func potIDParam(c *gin.Context) (uuid.UUID, bool) {
	potID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, domain.ErrNotFound.WithDetail("malformed pot id %q", c.Param("id")))
		return uuid.Nil, false
	}
	return potID, true
}
