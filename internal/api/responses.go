package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/annel0/mudmap/internal/clipboard"
	"github.com/annel0/mudmap/internal/editor"
	"github.com/annel0/mudmap/internal/storage"
	"github.com/annel0/mudmap/internal/world"
	"github.com/gin-gonic/gin"
)

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// LayerInfo это слой в ответах API
type LayerInfo struct {
	ID     world.LayerID `json:"id"`
	Name   string        `json:"name"`
	Places int           `json:"places"`
}

// PlaceInfo это место в ответах API
type PlaceInfo struct {
	ID          world.PlaceID            `json:"id"`
	Name        string                   `json:"name"`
	Comment     string                   `json:"comment,omitempty"`
	Area        string                   `json:"area,omitempty"`
	Layer       world.LayerID            `json:"layer"`
	X           int                      `json:"x"`
	Y           int                      `json:"y"`
	Placeholder bool                     `json:"placeholder,omitempty"`
	Exits       map[string]world.PlaceID `json:"exits,omitempty"`
	Children    []world.PlaceID          `json:"children,omitempty"`
}

func layerInfo(l *world.Layer) LayerInfo {
	return LayerInfo{ID: l.ID(), Name: l.Name, Places: l.Len()}
}

func placeInfo(p *world.Place) PlaceInfo {
	info := PlaceInfo{
		ID:          p.ID(),
		Name:        p.Name,
		Comment:     p.Comment,
		X:           p.X(),
		Y:           p.Y(),
		Placeholder: p.IsPlaceholder(),
	}
	if p.Area != nil {
		info.Area = p.Area.Name
	}
	if l := p.Layer(); l != nil {
		info.Layer = l.ID()
	}
	for _, path := range p.Paths() {
		if info.Exits == nil {
			info.Exits = make(map[string]world.PlaceID)
		}
		info.Exits[path.Direction(p).String()] = path.OtherPlace(p).ID()
	}
	for _, child := range p.Children() {
		info.Children = append(info.Children, child.ID())
	}
	return info
}

func placeInfos(places []*world.Place) []PlaceInfo {
	result := make([]PlaceInfo, 0, len(places))
	for _, p := range places {
		result = append(result, placeInfo(p))
	}
	return result
}

// statusFor сопоставляет доменные ошибки HTTP-статусам
func statusFor(err error) int {
	switch {
	case errors.Is(err, world.ErrPlaceNotFound),
		errors.Is(err, world.ErrLayerNotFound),
		errors.Is(err, world.ErrPathNotFound),
		errors.Is(err, world.ErrNotChild),
		errors.Is(err, storage.ErrViewpointNotFound),
		errors.Is(err, storage.ErrWorldNotFound):
		return http.StatusNotFound
	case errors.Is(err, world.ErrPositionOccupied),
		errors.Is(err, world.ErrSlotOccupied),
		errors.Is(err, world.ErrLayerExists),
		errors.Is(err, clipboard.ErrInsufficientSpace):
		return http.StatusConflict
	case errors.Is(err, world.ErrInvalidDirection),
		errors.Is(err, world.ErrForeignPath),
		errors.Is(err, editor.ErrSelfChild),
		errors.Is(err, clipboard.ErrEmptyBuffer):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (rs *RestServer) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		rs.logError("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, GenericResponse{Success: false, Message: err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: msg})
}

func ok(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: msg, Data: data})
}

func paramInt(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}
