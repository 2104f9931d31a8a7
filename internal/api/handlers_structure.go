package api

import (
	"net/http"

	"github.com/annel0/mudmap/internal/world"
	"github.com/gin-gonic/gin"
)

// SuggestionInfo это предложенный путь к соседу
type SuggestionInfo struct {
	Direction         world.Direction `json:"direction"`
	NeighborDirection world.Direction `json:"neighbor_direction"`
	Neighbor          PlaceInfo       `json:"neighbor"`
}

type childRequest struct {
	Child world.PlaceID `json:"child" binding:"required"`
}

type childLayerRequest struct {
	Name string `json:"name" binding:"required"`
}

type removePathRequest struct {
	Place     world.PlaceID `json:"place" binding:"required"`
	Direction string        `json:"direction" binding:"required"`
}

func placeParam(c *gin.Context) world.PlaceID {
	return world.PlaceID(c.Param("place"))
}

func (rs *RestServer) handleSuggestions(c *gin.Context) {
	suggestions, err := rs.session.NeighborConnectionsOf(placeParam(c))
	if err != nil {
		rs.fail(c, err)
		return
	}
	result := make([]SuggestionInfo, 0, len(suggestions))
	_ = rs.session.Do(func(*world.World) error {
		for _, sg := range suggestions {
			result = append(result, SuggestionInfo{
				Direction:         sg.Dir,
				NeighborDirection: sg.NeighborDir,
				Neighbor:          placeInfo(sg.Neighbor),
			})
		}
		return nil
	})
	ok(c, "", result)
}

func (rs *RestServer) handleRemovePlace(c *gin.Context) {
	if err := rs.session.RemovePlace(placeParam(c)); err != nil {
		rs.fail(c, err)
		return
	}
	ok(c, rs.session.LastMessage(), nil)
}

func (rs *RestServer) handleConnectChild(c *gin.Context) {
	var req childRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := rs.session.ConnectChild(placeParam(c), req.Child); err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, GenericResponse{Success: true, Message: rs.session.LastMessage()})
}

func (rs *RestServer) handleRemoveChild(c *gin.Context) {
	if err := rs.session.RemoveChild(placeParam(c), world.PlaceID(c.Param("child"))); err != nil {
		rs.fail(c, err)
		return
	}
	ok(c, rs.session.LastMessage(), nil)
}

// handleCreateChildLayer создаёт ребёнка на новом слое и возвращает его
func (rs *RestServer) handleCreateChildLayer(c *gin.Context) {
	var req childLayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	child, err := rs.session.CreateChildOnNewLayerOf(placeParam(c), req.Name)
	if err != nil {
		rs.fail(c, err)
		return
	}
	var info PlaceInfo
	_ = rs.session.Do(func(*world.World) error {
		info = placeInfo(child)
		return nil
	})
	c.JSON(http.StatusCreated, GenericResponse{Success: true, Message: rs.session.LastMessage(), Data: info})
}

func (rs *RestServer) handleRemovePath(c *gin.Context) {
	var req removePathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	dir, err := world.ParseDirection(req.Direction)
	if err != nil {
		rs.fail(c, err)
		return
	}
	if err := rs.session.RemovePath(req.Place, dir); err != nil {
		rs.fail(c, err)
		return
	}
	ok(c, "path removed", nil)
}
