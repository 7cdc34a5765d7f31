package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/valeevte/PriceTracker/internal/cache"
	"github.com/valeevte/PriceTracker/internal/notify"
	"github.com/valeevte/PriceTracker/internal/pricing"
	"github.com/valeevte/PriceTracker/internal/products"
	"github.com/valeevte/PriceTracker/internal/scheduler"
	"github.com/valeevte/PriceTracker/internal/tracker"
)

// Fetcher extracts a product page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*products.Scraped, error)
}

// Trigger runs the tracker on demand.
type Trigger interface {
	RunNow(ctx context.Context) (*tracker.RunSummary, error)
}

// RunReader returns the last recorded run.
type RunReader interface {
	LastSummary(ctx context.Context) (*tracker.RunSummary, error)
}

type Handler struct {
	repo     products.Store
	fetcher  Fetcher
	notifier tracker.Notifier
	trigger  Trigger
	runs     RunReader
	logger   *slog.Logger
	now      func() time.Time
}

func NewHandler(repo products.Store, fetcher Fetcher, notifier tracker.Notifier, trigger Trigger, runs RunReader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		repo:     repo,
		fetcher:  fetcher,
		notifier: notifier,
		trigger:  trigger,
		runs:     runs,
		logger:   logger,
		now:      time.Now,
	}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	{
		api.GET("/products", h.ListProducts)
		api.POST("/products", h.CreateProduct)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/products/:id/history", h.GetPriceHistory)
		api.POST("/products/:id/subscribers", h.Subscribe)
		api.GET("/cron", h.RunCron)
		api.GET("/cron/last", h.LastRun)
	}
}

type trackRequest struct {
	URL string `json:"url" binding:"required"`
}

// CreateProduct starts tracking a product page, or refreshes it if the URL
// is already tracked.
func (h *Handler) CreateProduct(c *gin.Context) {
	var input trackRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	u, err := url.Parse(input.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product url"})
		return
	}
	ctx := c.Request.Context()

	scraped, err := h.fetcher.Fetch(ctx, input.URL)
	if err != nil || scraped == nil || !pricing.Usable(scraped.CurrentPrice) {
		h.logger.Warn("CreateProduct: fetch failed", "url", input.URL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to read product page"})
		return
	}

	base, err := h.repo.GetProductByURL(ctx, input.URL)
	created := errors.Is(err, products.ErrNotFound)
	if created {
		base = &products.Product{URL: input.URL}
	} else if err != nil {
		h.logger.Error("CreateProduct: repo.GetProductByURL", "url", input.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to insert"})
		return
	}

	record := base.Merge(scraped, base.PriceHistory)
	pricing.Apply(record, scraped.CurrentPrice, h.now().UTC())
	p, err := h.repo.Upsert(ctx, record)
	if err != nil {
		h.logger.Error("CreateProduct: repo.Upsert", "url", input.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to insert"})
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, p)
}

func (h *Handler) ListProducts(c *gin.Context) {
	list, err := h.repo.ReadAll(c.Request.Context())
	if err != nil {
		h.logger.Error("ListProducts: repo.ReadAll", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	p, err := h.repo.GetProductByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		h.logger.Error("GetProduct: repo.GetProductByID", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch product"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPriceHistory(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	hist, err := h.repo.GetPriceHistory(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		h.logger.Error("GetPriceHistory: repo.GetPriceHistory", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}
	c.JSON(http.StatusOK, hist)
}

type subscribeRequest struct {
	Email       string   `json:"email" binding:"required,email"`
	TargetPrice *float64 `json:"target_price"`
}

// Subscribe adds a subscriber and sends them a welcome email.
func (h *Handler) Subscribe(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var input subscribeRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if input.TargetPrice != nil && *input.TargetPrice <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_price must be positive"})
		return
	}
	ctx := c.Request.Context()

	p, err := h.repo.AddSubscriber(ctx, id, products.Subscriber{Email: input.Email, TargetPrice: input.TargetPrice})
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		h.logger.Error("Subscribe: repo.AddSubscriber", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to subscribe"})
		return
	}

	content, err := h.notifier.Render(p.Info(), notify.Welcome)
	if err == nil {
		err = h.notifier.Send(ctx, content, []string{input.Email})
	}
	if err != nil {
		h.logger.Warn("Subscribe: welcome email", "id", id, "error", err)
	}
	c.JSON(http.StatusCreated, p)
}

// RunCron refreshes every tracked product now.
func (h *Handler) RunCron(c *gin.Context) {
	summary, err := h.trigger.RunNow(c.Request.Context())
	if err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": err.Error()})
			return
		}
		h.logger.Error("RunCron: run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Products updated successfully", "data": summary})
}

func (h *Handler) LastRun(c *gin.Context) {
	summary, err := h.runs.LastSummary(c.Request.Context())
	if err != nil {
		if errors.Is(err, cache.ErrNoRun) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no run recorded"})
			return
		}
		h.logger.Error("LastRun: LastSummary", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch last run"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func productID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
