package worldapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/beka-birhanu/vinom-caves/api/identity"
	"github.com/beka-birhanu/vinom-caves/game/movement"
	"github.com/beka-birhanu/vinom-caves/game/world"
	"github.com/beka-birhanu/vinom-caves/service"
	"github.com/beka-birhanu/vinom-caves/service/i"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	pathTimeout       = 2 * time.Second
	generationTimeout = 10 * time.Second
)

// Controller serves world sessions.
type Controller struct {
	sessions  i.WorldSessionManager
	tokenizer i.Tokenizer
	tokenTTL  time.Duration
}

// NewController initializes a Controller issuing tokens valid for tokenTTL.
func NewController(sessions i.WorldSessionManager, tokenizer i.Tokenizer, tokenTTL time.Duration) (*Controller, error) {
	if sessions == nil || tokenizer == nil {
		return nil, errors.New("world controller needs a session manager and a tokenizer")
	}
	return &Controller{
		sessions:  sessions,
		tokenizer: tokenizer,
		tokenTTL:  tokenTTL,
	}, nil
}

// RegisterPublic registers public routes.
func (wc *Controller) RegisterPublic(route *gin.RouterGroup) {
	worlds := route.Group("/worlds")
	{
		worlds.POST("", wc.create)
		worlds.GET("/:id", wc.view)
		worlds.GET("/:id/cells", wc.cell)
		worlds.GET("/:id/viewport", wc.viewport)
		worlds.GET("/:id/random-empty", wc.randomEmpty)
	}
}

// RegisterProtected registers routes that require the token of the world they address.
func (wc *Controller) RegisterProtected(route *gin.RouterGroup) {
	owned := route.Group("/worlds/:id")
	owned.Use(identity.RequireSession("id"))
	{
		owned.POST("/path", wc.path)
		owned.POST("/moves", wc.enqueue)
		owned.DELETE("/moves/:index", wc.remove)
		owned.POST("/cancel", wc.cancel)
		owned.POST("/regenerate", wc.regenerate)
		owned.POST("/wander", wc.wander)
	}
}

// create generates a world and returns a token controlling it.
func (wc *Controller) create(ctx *gin.Context) {
	var request CreateWorldRequest
	if err := ctx.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	timeoutCtx, cancel := context.WithTimeout(ctx.Request.Context(), generationTimeout)
	defer cancel()
	info, err := wc.sessions.Create(timeoutCtx, request.Seed, request.Width, request.Height)
	if err != nil {
		respondError(ctx, err)
		return
	}

	token, err := wc.tokenizer.Generate(map[string]interface{}{
		identity.ClaimSessionID: info.ID.String(),
	}, wc.tokenTTL)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error while issuing token"})
		return
	}

	ctx.JSON(http.StatusCreated, &CreateWorldResponse{WorldInfo: info, Token: token})
}

func (wc *Controller) view(ctx *gin.Context) {
	id, ok := sessionParam(ctx)
	if !ok {
		return
	}

	view, err := wc.sessions.View(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, view)
}

func (wc *Controller) cell(ctx *gin.Context) {
	id, ok := sessionParam(ctx)
	if !ok {
		return
	}

	var request PositionRequest
	if err := ctx.ShouldBindQuery(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cell, err := wc.sessions.Cell(id, request.position())
	if errors.Is(err, movement.ErrOutOfBounds) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no such cell"})
		return
	}
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, &CellResponse{
		X:        cell.Pos.X,
		Y:        cell.Pos.Y,
		State:    cell.State.String(),
		Walkable: cell.State != world.Wall,
	})
}

func (wc *Controller) viewport(ctx *gin.Context) {
	id, ok := sessionParam(ctx)
	if !ok {
		return
	}

	var request ViewportRequest
	if err := ctx.ShouldBindQuery(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vp, err := wc.sessions.Viewport(id, request.Width, request.Height)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, vp)
}

func (wc *Controller) randomEmpty(ctx *gin.Context) {
	id, ok := sessionParam(ctx)
	if !ok {
		return
	}

	pos, err := wc.sessions.RandomEmpty(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, pos)
}

func (wc *Controller) path(ctx *gin.Context) {
	id, ok := sessionParam(ctx)
	if !ok {
		return
	}

	var request PathRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	timeoutCtx, cancel := context.WithTimeout(ctx.Request.Context(), pathTimeout)
	defer cancel()
	path, err := wc.sessions.FindPath(timeoutCtx, id, *request.From, *request.To)
	if err != nil {
		respondError(ctx, err)
		return
	}

	response := &PathResponse{Path: path, Found: path != nil}
	if path != nil {
		response.Length = len(path) - 1
	}
	ctx.JSON(http.StatusOK, response)
}

func (wc *Controller) enqueue(ctx *gin.Context) {
	id, ok := sessionParam(ctx)
	if !ok {
		return
	}

	var request PositionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := wc.sessions.Enqueue(id, request.position())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusAccepted, req)
}

func (wc *Controller) remove(ctx *gin.Context) {
	id, ok := sessionParam(ctx)
	if !ok {
		return
	}

	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}

	req, err := wc.sessions.Remove(id, index)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, req)
}

func (wc *Controller) cancel(ctx *gin.Context) {
	id, ok := sessionParam(ctx)
	if !ok {
		return
	}

	if err := wc.sessions.CancelAll(id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (wc *Controller) regenerate(ctx *gin.Context) {
	id, ok := sessionParam(ctx)
	if !ok {
		return
	}

	var request RegenerateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	timeoutCtx, cancel := context.WithTimeout(ctx.Request.Context(), generationTimeout)
	defer cancel()
	info, err := wc.sessions.Regenerate(timeoutCtx, id, request.Seed)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, info)
}

func (wc *Controller) wander(ctx *gin.Context) {
	id, ok := sessionParam(ctx)
	if !ok {
		return
	}

	req, err := wc.sessions.Wander(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusAccepted, req)
}

// sessionParam parses the :id parameter, answering 400 itself when it is malformed.
func sessionParam(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid world id"})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service errors to HTTP status codes.
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "world not found"})
	case errors.Is(err, world.ErrInvalidDimensions),
		errors.Is(err, movement.ErrOutOfBounds),
		errors.Is(err, movement.ErrIndexOutOfRange):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoEmptyCell):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "timed out"})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected error"})
	}
}
