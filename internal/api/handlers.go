package api

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/annel0/mudmap/internal/world"
	"github.com/gin-gonic/gin"
)

// --- служебные ---

func (rs *RestServer) handleHealth(c *gin.Context) {
	var places, layers int
	_ = rs.session.Do(func(w *world.World) error {
		places, layers = w.PlaceCount(), len(w.Layers())
		return nil
	})
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"world":  rs.worldName,
		"layers": layers,
		"places": places,
	})
}

func (rs *RestServer) handleStats(c *gin.Context) {
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, err := rs.metrics.GetCPUUsage()
	if err != nil {
		cpuPercent = 0
	}

	var places, layers, areas int
	_ = rs.session.Do(func(w *world.World) error {
		places, layers, areas = w.PlaceCount(), len(w.Layers()), len(w.Areas())
		return nil
	})

	ok(c, "", gin.H{
		"uptime":      rs.metrics.GetUptime(),
		"memory_mb":   memoryMB,
		"cpu_percent": cpuPercent,
		"goroutines":  runtime.NumGoroutine(),
		"memory":      rs.metrics.GetDetailedMemoryStats(),
		"world":       rs.worldName,
		"layers":      layers,
		"places":      places,
		"areas":       areas,
	})
}

// --- слои и места ---

type createLayerRequest struct {
	Name string `json:"name" binding:"required"`
}

type createPlaceRequest struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Name string `json:"name" binding:"required"`
}

type cellRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (rs *RestServer) handleGetLayers(c *gin.Context) {
	var result []LayerInfo
	_ = rs.session.Do(func(w *world.World) error {
		for _, l := range w.Layers() {
			result = append(result, layerInfo(l))
		}
		return nil
	})
	ok(c, "", result)
}

func (rs *RestServer) handleCreateLayer(c *gin.Context) {
	var req createLayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	var info LayerInfo
	_ = rs.session.Do(func(w *world.World) error {
		info = layerInfo(w.NewLayer(req.Name))
		return nil
	})
	c.JSON(http.StatusCreated, GenericResponse{Success: true, Message: "layer created", Data: info})
}

// withLayer выполняет fn под блокировкой сессии над слоем из пути запроса
func (rs *RestServer) withLayer(c *gin.Context, fn func(w *world.World, l *world.Layer) error) bool {
	id, valid := paramInt(c, "id")
	if !valid {
		return false
	}
	err := rs.session.Do(func(w *world.World) error {
		layer := w.Layer(world.LayerID(id))
		if layer == nil {
			return fmt.Errorf("%w: %d", world.ErrLayerNotFound, id)
		}
		return fn(w, layer)
	})
	if err != nil {
		rs.fail(c, err)
		return false
	}
	return true
}

func (rs *RestServer) handleLayerPlaces(c *gin.Context) {
	var result []PlaceInfo
	if rs.withLayer(c, func(_ *world.World, l *world.Layer) error {
		result = placeInfos(l.Places())
		return nil
	}) {
		ok(c, "", result)
	}
}

func (rs *RestServer) handleCreatePlace(c *gin.Context) {
	var req createPlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	var info PlaceInfo
	if rs.withLayer(c, func(w *world.World, l *world.Layer) error {
		place, err := w.PutPlace(l.ID(), req.X, req.Y, req.Name)
		if err != nil {
			return err
		}
		info = placeInfo(place)
		return nil
	}) {
		c.JSON(http.StatusCreated, GenericResponse{Success: true, Message: "place created", Data: info})
	}
}

func (rs *RestServer) handleCell(c *gin.Context) {
	x, valid := paramInt(c, "x")
	if !valid {
		return
	}
	y, valid := paramInt(c, "y")
	if !valid {
		return
	}
	var info PlaceInfo
	if rs.withLayer(c, func(_ *world.World, l *world.Layer) error {
		place := l.Get(x, y)
		if place == nil {
			return fmt.Errorf("%w at %d, %d", world.ErrPlaceNotFound, x, y)
		}
		info = placeInfo(place)
		return nil
	}) {
		ok(c, "", info)
	}
}

func (rs *RestServer) handleNeighbors(c *gin.Context) {
	x, valid := queryInt(c, "x", 0)
	if !valid {
		return
	}
	y, valid := queryInt(c, "y", 0)
	if !valid {
		return
	}
	radius, valid := queryInt(c, "radius", rs.neighborRadius)
	if !valid {
		return
	}
	if radius < 1 {
		badRequest(c, "radius must be positive")
		return
	}
	var result []PlaceInfo
	if rs.withLayer(c, func(_ *world.World, l *world.Layer) error {
		result = placeInfos(l.Neighbors(x, y, radius))
		return nil
	}) {
		ok(c, "", result)
	}
}

func (rs *RestServer) handleTogglePlaceholder(c *gin.Context) {
	id, valid := paramInt(c, "id")
	if !valid {
		return
	}
	var req cellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	at := world.NewWorldCoordinate(world.LayerID(id), float64(req.X), float64(req.Y))
	created, err := rs.session.TogglePlaceholderAt(at)
	if err != nil {
		rs.fail(c, err)
		return
	}
	if created == nil {
		ok(c, "placeholder removed", nil)
		return
	}
	c.JSON(http.StatusCreated, GenericResponse{Success: true, Message: "placeholder created", Data: placeInfo(created)})
}

// --- пути и поиск ---

type connectPathRequest struct {
	From    world.PlaceID `json:"from" binding:"required"`
	FromDir string        `json:"from_dir" binding:"required"`
	To      world.PlaceID `json:"to" binding:"required"`
	ToDir   string        `json:"to_dir" binding:"required"`
}

type searchRequest struct {
	From world.PlaceID `json:"from" binding:"required"`
	To   world.PlaceID `json:"to" binding:"required"`
}

func (rs *RestServer) handleConnectPath(c *gin.Context) {
	var req connectPathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	fromDir, err := world.ParseDirection(req.FromDir)
	if err != nil {
		rs.fail(c, err)
		return
	}
	toDir, err := world.ParseDirection(req.ToDir)
	if err != nil {
		rs.fail(c, err)
		return
	}

	err = rs.session.Do(func(w *world.World) error {
		from, to := w.PlaceByID(req.From), w.PlaceByID(req.To)
		if from == nil {
			return fmt.Errorf("%w: %s", world.ErrPlaceNotFound, req.From)
		}
		if to == nil {
			return fmt.Errorf("%w: %s", world.ErrPlaceNotFound, req.To)
		}
		return from.ConnectPath(world.NewPath(from, fromDir, to, toDir))
	})
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, GenericResponse{Success: true, Message: "path connected"})
}

func (rs *RestServer) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	route, err := rs.session.FindPathByID(req.From, req.To)
	if err != nil {
		rs.fail(c, err)
		return
	}
	if route == nil {
		rs.fail(c, fmt.Errorf("%w: %s -> %s", world.ErrPathNotFound, req.From, req.To))
		return
	}

	ids := make([]world.PlaceID, 0, route.Len())
	for _, p := range route.Places() {
		ids = append(ids, p.ID())
	}
	ok(c, rs.session.LastMessage(), gin.H{"length": route.Len(), "places": ids})
}

// --- буфер обмена и выделение ---

type captureRequest struct {
	Anchor world.WorldCoordinate `json:"anchor"`
	Places []world.PlaceID       `json:"places"`
}

type pasteRequest struct {
	Target world.WorldCoordinate `json:"target"`
}

type boxRequest struct {
	Start world.WorldCoordinate `json:"start"`
	End   world.WorldCoordinate `json:"end"`
}

func (rs *RestServer) handleCopy(c *gin.Context) {
	rs.capture(c, rs.session.CopyPlaces)
}

func (rs *RestServer) handleCut(c *gin.Context) {
	rs.capture(c, rs.session.CutPlaces)
}

func (rs *RestServer) capture(c *gin.Context, op func(world.WorldCoordinate, []world.PlaceID) (int, error)) {
	var req captureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := op(req.Anchor, req.Places)
	if err != nil {
		rs.fail(c, err)
		return
	}
	ok(c, rs.session.LastMessage(), gin.H{"count": n})
}

func (rs *RestServer) handlePaste(c *gin.Context) {
	var req pasteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := rs.session.PasteAt(req.Target)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, GenericResponse{Success: false, Message: rs.session.LastMessage(), Data: gin.H{"error": err.Error(), "count": n}})
		return
	}
	ok(c, rs.session.LastMessage(), gin.H{"count": n})
}

func (rs *RestServer) handleResetClipboard(c *gin.Context) {
	rs.session.ResetClipboard()
	ok(c, "clipboard cleared", nil)
}

func (rs *RestServer) handleSelectBox(c *gin.Context) {
	var req boxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	var result []PlaceInfo
	places := rs.session.SelectBox(req.Start, req.End)
	_ = rs.session.Do(func(*world.World) error {
		result = placeInfos(places)
		return nil
	})
	ok(c, fmt.Sprintf("%d places selected", len(result)), result)
}
