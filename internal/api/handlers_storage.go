package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/annel0/mudmap/internal/storage"
	"github.com/annel0/mudmap/internal/world"
	"github.com/gin-gonic/gin"
)

const storageTimeout = 5 * time.Second

type viewpointRequest struct {
	History []world.WorldCoordinate `json:"history"`
}

var errStorageDisabled = errors.New("storage is not configured")

func (rs *RestServer) storageContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), storageTimeout)
}

func (rs *RestServer) requireViewpoints(c *gin.Context) bool {
	if rs.viewpoints == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: errStorageDisabled.Error()})
		return false
	}
	return true
}

func (rs *RestServer) handleGetViewpoint(c *gin.Context) {
	if !rs.requireViewpoints(c) {
		return
	}
	ctx, cancel := rs.storageContext(c)
	defer cancel()

	user := c.Param("user")
	history, found, err := rs.viewpoints.Load(ctx, user)
	if err != nil {
		rs.fail(c, err)
		return
	}
	if !found {
		rs.fail(c, storage.ErrViewpointNotFound)
		return
	}
	ok(c, "", gin.H{"user": user, "history": history})
}

func (rs *RestServer) handlePutViewpoint(c *gin.Context) {
	if !rs.requireViewpoints(c) {
		return
	}
	var req viewpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx, cancel := rs.storageContext(c)
	defer cancel()

	if err := rs.viewpoints.Save(ctx, c.Param("user"), req.History); err != nil {
		rs.fail(c, err)
		return
	}
	ok(c, "viewpoint saved", gin.H{"entries": len(req.History)})
}

// handleSaveViewpoint сохраняет историю позиций текущей сессии под именем пользователя
func (rs *RestServer) handleSaveViewpoint(c *gin.Context) {
	if !rs.requireViewpoints(c) {
		return
	}
	ctx, cancel := rs.storageContext(c)
	defer cancel()

	history := rs.session.HistoryEntries()
	if err := rs.viewpoints.Save(ctx, c.Param("user"), history); err != nil {
		rs.fail(c, err)
		return
	}
	ok(c, "viewpoint saved", gin.H{"entries": len(history)})
}

// handleRestoreViewpoint загружает историю пользователя в сессию
func (rs *RestServer) handleRestoreViewpoint(c *gin.Context) {
	if !rs.requireViewpoints(c) {
		return
	}
	ctx, cancel := rs.storageContext(c)
	defer cancel()

	history, found, err := rs.viewpoints.Load(ctx, c.Param("user"))
	if err != nil {
		rs.fail(c, err)
		return
	}
	if !found {
		rs.fail(c, storage.ErrViewpointNotFound)
		return
	}
	rs.session.SetHistoryEntries(history)
	ok(c, "viewpoint restored", gin.H{"position": rs.session.Position()})
}

func (rs *RestServer) handleSaveWorld(c *gin.Context) {
	if rs.store == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: errStorageDisabled.Error()})
		return
	}
	ctx, cancel := rs.storageContext(c)
	defer cancel()

	var places int
	err := rs.session.Do(func(w *world.World) error {
		places = w.PlaceCount()
		return rs.store.SaveWorld(ctx, rs.worldName, w)
	})
	if err != nil {
		rs.fail(c, err)
		return
	}
	rs.logInfo("💾 Мир %s сохранён через API (%d мест)", rs.worldName, places)
	ok(c, "world saved", gin.H{"world": rs.worldName, "places": places})
}
